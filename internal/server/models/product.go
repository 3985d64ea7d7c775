package models

import "time"

// Product is a used book offered by a seller. SoldStatus is terminal:
// once set, the product can no longer be advertised, deleted or booked.
type Product struct {
	ID            string    `json:"_id"`
	SellerEmail   string    `json:"sellerEmail"`
	SellerName    string    `json:"sellerName"`
	CategoryID    string    `json:"categoryId"`
	Name          string    `json:"name"`
	Image         string    `json:"image"`
	Location      string    `json:"location"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice"`
	YearsOfUse    int       `json:"yearsOfUse"`
	Condition     string    `json:"condition"`
	Phone         string    `json:"phone"`
	Description   string    `json:"description"`
	Advertised    bool      `json:"advertised"`
	SoldStatus    bool      `json:"soldStatus"`
	CreatedAt     time.Time `json:"createdAt"`
}
