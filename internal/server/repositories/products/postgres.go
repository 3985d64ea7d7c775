// Package products stores the books offered for resale.
package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/dbx"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `SELECT id, seller_email, seller_name, category_id, name, image, location,
		price, original_price, years_of_use, condition, phone, description,
		advertised, sold_status, created_at
		FROM products`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*models.Product, error) {
	p := &models.Product{}
	err := s.Scan(&p.ID, &p.SellerEmail, &p.SellerName, &p.CategoryID, &p.Name, &p.Image, &p.Location,
		&p.Price, &p.OriginalPrice, &p.YearsOfUse, &p.Condition, &p.Phone, &p.Description,
		&p.Advertised, &p.SoldStatus, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {

	query :=
		`INSERT INTO products (id, seller_email, seller_name, category_id, name, image, location,
		     price, original_price, years_of_use, condition, phone, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at
		 `

	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, p.SellerEmail, p.SellerName, p.CategoryID, p.Name, p.Image, p.Location,
		p.Price, p.OriginalPrice, p.YearsOfUse, p.Condition, p.Phone, p.Description).Scan(&p.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.ID = id
	p.Advertised = false
	p.SoldStatus = false
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Product, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, id string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	return r.query(ctx, selectColumns+` WHERE category_id = $1 AND sold_status = FALSE ORDER BY created_at DESC`, categoryID)
}

func (r *PostgresRepository) ListAdvertised(ctx context.Context) ([]models.Product, error) {
	return r.query(ctx, selectColumns+` WHERE advertised = TRUE AND sold_status = FALSE ORDER BY created_at DESC`)
}

func (r *PostgresRepository) ListBySeller(ctx context.Context, sellerEmail string) ([]models.Product, error) {
	return r.query(ctx, selectColumns+` WHERE seller_email = $1 ORDER BY created_at DESC`, sellerEmail)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Advertise(ctx context.Context, id, sellerEmail string) (int64, error) {
	query :=
		`UPDATE products SET advertised = TRUE
		 WHERE id = $1 AND seller_email = $2 AND sold_status = FALSE
		 `
	return r.exec(ctx, query, id, sellerEmail)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, sellerEmail string) (int64, error) {
	query :=
		`DELETE FROM products
		 WHERE id = $1 AND seller_email = $2 AND sold_status = FALSE
		 `
	return r.exec(ctx, query, id, sellerEmail)
}

func (r *PostgresRepository) MarkSold(ctx context.Context, id string) error {
	query :=
		`UPDATE products SET sold_status = TRUE
		 WHERE id = $1 AND sold_status = FALSE
		 `
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res, common.ErrorProductSold)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}
