package bookings

import (
	"context"

	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
)

type Repository interface {
	// Create inserts b unless the buyer already booked the product, in
	// which case it returns common.ErrorAlreadyBooked and writes nothing.
	Create(ctx context.Context, b *models.Booking) (*models.Booking, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// LockByID reads the booking with a row lock. Only meaningful inside
	// a transaction.
	LockByID(ctx context.Context, id string) (*models.Booking, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]models.Booking, error)
	// MarkPaid flips paid on an unpaid booking. A booking that is already
	// paid yields common.ErrorConflict.
	MarkPaid(ctx context.Context, id string) error
}
