// Package services contains server-side business logic: token issuing, role
// checks, the product lifecycle, bookings and payment settlement.
package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
)

// EventPublisher emits domain events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// Locker grants short exclusive leases. Acquire fails with redisx.ErrLockHeld
// when the key is taken.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error)
}

// ListingCache caches the advertised-products listing. Set only stores
// items if no Invalidate ran since Generation returned gen.
type ListingCache interface {
	Get(ctx context.Context) ([]models.Product, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, gen int64, items []models.Product) (bool, error)
	Invalidate(ctx context.Context) error
}

// PaymentProvider creates a payment intent for amount minor units and
// returns the client secret.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, any) error { return nil }

type nopCache struct{}

func (nopCache) Get(context.Context) ([]models.Product, bool, error)        { return nil, false, nil }
func (nopCache) Generation(context.Context) (int64, error)                  { return 0, nil }
func (nopCache) Set(context.Context, int64, []models.Product) (bool, error) { return false, nil }
func (nopCache) Invalidate(context.Context) error                           { return nil }

// WriteResult mirrors the matched/modified counters returned by updates.
type WriteResult struct {
	Matched  int64
	Modified int64
}
