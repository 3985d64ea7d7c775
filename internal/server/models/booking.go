package models

import "time"

// Booking is a buyer's claim on a product. Paid flips to true only
// through payment settlement.
type Booking struct {
	ID              string    `json:"_id"`
	BuyerEmail      string    `json:"buyerEmail"`
	BuyerName       string    `json:"buyerName"`
	ProductID       string    `json:"product"`
	ProductName     string    `json:"productName"`
	Price           float64   `json:"price"`
	Phone           string    `json:"phone"`
	MeetingLocation string    `json:"meetingLocation"`
	Paid            bool      `json:"paid"`
	CreatedAt       time.Time `json:"createdAt"`
}
