package payments

import (
	"context"

	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
)

type Repository interface {
	// Create appends a payment. A second payment for the same booking
	// yields common.ErrorConflict.
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error)
}
