package models

import "time"

// Payment records a settled booking. Rows are never updated.
type Payment struct {
	ID            string    `json:"_id"`
	BookingID     string    `json:"bookingId"`
	ProductID     string    `json:"productId"`
	Email         string    `json:"email"`
	Amount        float64   `json:"price"`
	TransactionID string    `json:"transactionId"`
	CreatedAt     time.Time `json:"createdAt"`
}
