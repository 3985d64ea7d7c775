// Package payments stores settled payments. Rows are append-only.
package payments

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {

	query :=
		`INSERT INTO payments (id, booking_id, product_id, email, amount, transaction_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, p.BookingID, p.ProductID, p.Email, p.Amount, p.TransactionID).Scan(&p.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.ID = id
	return p, nil
}

func (r *PostgresRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	query :=
		`SELECT id, booking_id, product_id, email, amount, transaction_id, created_at
		 FROM payments
		 WHERE booking_id = $1
		 `

	p := &models.Payment{}
	err := r.db.QueryRowContext(ctx, query, bookingID).
		Scan(&p.ID, &p.BookingID, &p.ProductID, &p.Email, &p.Amount, &p.TransactionID, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}
