// Package events publishes marketplace domain events to Kafka.
package events

import (
	"encoding/json"
	"time"
)

const (
	EventUserRegistered    = "user.registered"
	EventProductCreated    = "product.created"
	EventProductAdvertised = "product.advertised"
	EventProductDeleted    = "product.deleted"
	EventBookingCreated    = "booking.created"
	EventPaymentSettled    = "payment.settled"
)

// EnvelopeVersion is bumped on breaking payload changes.
const EnvelopeVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type ProductPayload struct {
	ProductID   string  `json:"product_id"`
	SellerEmail string  `json:"seller_email"`
	CategoryID  string  `json:"category_id,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

type BookingCreatedPayload struct {
	BookingID  string  `json:"booking_id"`
	ProductID  string  `json:"product_id"`
	BuyerEmail string  `json:"buyer_email"`
	Price      float64 `json:"price"`
}

type PaymentSettledPayload struct {
	PaymentID     string  `json:"payment_id"`
	BookingID     string  `json:"booking_id"`
	ProductID     string  `json:"product_id"`
	Email         string  `json:"email"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
}

// UnwrapPayload decodes an envelope payload into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, err
	}
	return t, nil
}
