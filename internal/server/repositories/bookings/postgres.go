// Package bookings stores buyers' bookings of products.
package bookings

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

const selectColumns = `SELECT id, buyer_email, buyer_name, product_id, product_name, price,
		phone, meeting_location, paid, created_at
		FROM bookings`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := s.Scan(&b.ID, &b.BuyerEmail, &b.BuyerName, &b.ProductID, &b.ProductName, &b.Price,
		&b.Phone, &b.MeetingLocation, &b.Paid, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, b *models.Booking) (*models.Booking, error) {

	query :=
		`INSERT INTO bookings (id, buyer_email, buyer_name, product_id, product_name, price, phone, meeting_location)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (buyer_email, product_id) DO NOTHING
		 RETURNING created_at
		 `

	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, b.BuyerEmail, b.BuyerName, b.ProductID, b.ProductName, b.Price, b.Phone, b.MeetingLocation).Scan(&b.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyBooked
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	b.ID = id
	b.Paid = false
	return b, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, id string) (*models.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE buyer_email = $1 ORDER BY created_at`, buyerEmail)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, id string) error {
	query :=
		`UPDATE bookings SET paid = TRUE
		 WHERE id = $1 AND paid = FALSE
		 `
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res, common.ErrorConflict)
}
