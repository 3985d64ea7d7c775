package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/dmitrijs2005/basementofbooks/internal/server/auth"
	"github.com/dmitrijs2005/basementofbooks/internal/server/events"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/repomanager"
)

type BookingInput struct {
	ProductID       string
	BuyerName       string
	Phone           string
	MeetingLocation string
}

// BookingService records buyers' bookings. One buyer books a product at
// most once; several buyers may book the same product.
type BookingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *RoleGuard
	publisher   EventPublisher
	logger      logging.Logger
}

func NewBookingService(db *sql.DB, m repomanager.RepositoryManager, guard *RoleGuard, pub EventPublisher, logger logging.Logger) *BookingService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &BookingService{db: db, repomanager: m, guard: guard, publisher: pub, logger: logger}
}

// Book creates an unpaid booking of an unsold product for the calling buyer.
func (s *BookingService) Book(ctx context.Context, in BookingInput) (*models.Booking, error) {
	buyer, err := s.guard.RequireBuyer(ctx)
	if err != nil {
		return nil, err
	}
	if in.ProductID == "" {
		return nil, fmt.Errorf("%w: product is required", common.ErrorValidation)
	}

	product, err := s.repomanager.Products(s.db).GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product.SoldStatus {
		return nil, common.ErrorProductSold
	}

	repo := s.repomanager.Bookings(s.db)

	existing, err := repo.ListByBuyer(ctx, buyer.Email)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		if b.ProductID == in.ProductID {
			return nil, common.ErrorAlreadyBooked
		}
	}

	buyerName := strings.TrimSpace(in.BuyerName)
	if buyerName == "" {
		buyerName = buyer.Name
	}

	// The unique (buyer_email, product_id) index settles concurrent duplicates.
	b, err := repo.Create(ctx, &models.Booking{
		BuyerEmail:      buyer.Email,
		BuyerName:       buyerName,
		ProductID:       product.ID,
		ProductName:     product.Name,
		Price:           product.Price,
		Phone:           in.Phone,
		MeetingLocation: in.MeetingLocation,
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.EventBookingCreated, b.ProductID, events.BookingCreatedPayload{
		BookingID: b.ID, ProductID: b.ProductID, BuyerEmail: b.BuyerEmail, Price: b.Price,
	}); err != nil {
		s.logger.Warn(ctx, "event not published", "event", events.EventBookingCreated, "key", b.ID, "error", err)
	}
	return b, nil
}

// ListByBuyer returns the bookings of email, which must be the caller.
func (s *BookingService) ListByBuyer(ctx context.Context, email string) ([]models.Booking, error) {
	if err := s.guard.RequireSelf(ctx, email); err != nil {
		return nil, err
	}
	return s.repomanager.Bookings(s.db).ListByBuyer(ctx, email)
}

// Get returns a booking to its buyer.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	email, ok := auth.EmailFromContext(ctx)
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	b, err := s.repomanager.Bookings(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.BuyerEmail != email {
		return nil, common.ErrorForbidden
	}
	return b, nil
}
