package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/dbx"
	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/dmitrijs2005/basementofbooks/internal/server/auth"
	"github.com/dmitrijs2005/basementofbooks/internal/server/config"
	"github.com/dmitrijs2005/basementofbooks/internal/server/events"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/redisx"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/repomanager"
)

// priceTolerance absorbs float rounding when comparing major-unit amounts.
const priceTolerance = 0.005

// SettleInput carries the payment facts reported by the client after the
// provider confirmed the charge.
type SettleInput struct {
	BookingID     string
	ProductID     string
	Amount        float64
	TransactionID string
}

type PaymentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    PaymentProvider
	locker      Locker
	cache       ListingCache
	publisher   EventPublisher
	logger      logging.Logger
	currency    string
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, provider PaymentProvider, locker Locker,
	cache ListingCache, pub EventPublisher, logger logging.Logger, cfg *config.Config) *PaymentService {
	if cache == nil {
		cache = nopCache{}
	}
	if pub == nil {
		pub = nopPublisher{}
	}
	return &PaymentService{
		db:          db,
		repomanager: m,
		provider:    provider,
		locker:      locker,
		cache:       cache,
		publisher:   pub,
		logger:      logger,
		currency:    cfg.PaymentCurrency,
	}
}

// MinorUnits converts a major-unit price to the provider's integer amount.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateIntent asks the provider for a payment intent of price. Nothing is
// stored locally.
func (s *PaymentService) CreateIntent(ctx context.Context, price float64) (string, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || MinorUnits(price) <= 0 {
		return "", fmt.Errorf("%w: price must be positive", common.ErrorValidation)
	}
	if s.provider == nil {
		return "", fmt.Errorf("%w: payment provider not configured", common.ErrorInternal)
	}

	secret, err := s.provider.CreatePaymentIntent(ctx, MinorUnits(price), s.currency)
	if err != nil {
		return "", fmt.Errorf("error creating payment intent: %w", err)
	}
	return secret, nil
}

// Settle records a payment for a booking and marks the booking paid and the
// product sold, all in one transaction. Settling a paid booking again returns
// the original payment with created=false.
//
// Precondition failures come back as plain sentinels and leave no trace.
// Once a write has been made, any failure is wrapped in common.ErrorSettlement.
func (s *PaymentService) Settle(ctx context.Context, in SettleInput) (payment *models.Payment, created bool, err error) {
	caller, ok := auth.EmailFromContext(ctx)
	if !ok {
		return nil, false, common.ErrorUnauthorized
	}
	if in.BookingID == "" || in.ProductID == "" || in.TransactionID == "" {
		return nil, false, fmt.Errorf("%w: bookingId, productId and transactionId are required", common.ErrorValidation)
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount <= 0 {
		return nil, false, fmt.Errorf("%w: price must be a positive finite number", common.ErrorValidation)
	}

	// The lease only turns a concurrent retry into a fast 409. The row
	// locks below serialize settlement, so a lock backend outage is
	// logged and settlement proceeds without the lease.
	release, err := s.locker.Acquire(ctx, redisx.SettleLockKey(in.BookingID), redisx.TTLSettleLock)
	switch {
	case errors.Is(err, redisx.ErrLockHeld):
		return nil, false, common.ErrorSettlementInProgress
	case err != nil:
		s.logger.Warn(ctx, "settlement lease unavailable, relying on row locks", "booking_id", in.BookingID, "error", err)
	default:
		defer release(context.WithoutCancel(ctx))
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		bookings := s.repomanager.Bookings(tx)
		products := s.repomanager.Products(tx)
		payments := s.repomanager.Payments(tx)

		b, err := bookings.LockByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if b.BuyerEmail != caller {
			return common.ErrorForbidden
		}
		if b.ProductID != in.ProductID {
			return fmt.Errorf("%w: booking %s is not for product %s", common.ErrorValidation, b.ID, in.ProductID)
		}

		if b.Paid {
			p, err := payments.GetByBookingID(ctx, b.ID)
			if err != nil {
				return fmt.Errorf("%w: paid booking %s has no payment: %w", common.ErrorSettlement, b.ID, err)
			}
			payment = p
			return nil
		}

		if math.Abs(b.Price-in.Amount) > priceTolerance {
			return fmt.Errorf("%w: price %.2f does not match booking price %.2f", common.ErrorValidation, in.Amount, b.Price)
		}

		product, err := products.LockByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product.SoldStatus {
			return common.ErrorProductSold
		}

		p, err := payments.Create(ctx, &models.Payment{
			BookingID:     b.ID,
			ProductID:     product.ID,
			Email:         b.BuyerEmail,
			Amount:        in.Amount,
			TransactionID: in.TransactionID,
		})
		if err != nil {
			return fmt.Errorf("error recording payment: %w", err)
		}

		if err := bookings.MarkPaid(ctx, b.ID); err != nil {
			return fmt.Errorf("%w: mark booking %s paid: %w", common.ErrorSettlement, b.ID, err)
		}
		if err := products.MarkSold(ctx, product.ID); err != nil {
			return fmt.Errorf("%w: mark product %s sold: %w", common.ErrorSettlement, product.ID, err)
		}

		payment = p
		created = true
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorSettlement) {
			s.logger.Error(ctx, "settlement rolled back", "booking_id", in.BookingID, "product_id", in.ProductID, "error", err)
		}
		return nil, false, err
	}

	if created {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn(ctx, "advertised cache invalidation failed", "error", err)
		}
		if err := s.publisher.Publish(ctx, events.EventPaymentSettled, payment.ProductID, events.PaymentSettledPayload{
			PaymentID:     payment.ID,
			BookingID:     payment.BookingID,
			ProductID:     payment.ProductID,
			Email:         payment.Email,
			Amount:        payment.Amount,
			TransactionID: payment.TransactionID,
		}); err != nil {
			s.logger.Warn(ctx, "event not published", "event", events.EventPaymentSettled, "key", payment.ID, "error", err)
		}
	}

	return payment, created, nil
}
