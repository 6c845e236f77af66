package order

import "time"

// Line is an immutable snapshot of one ordered item, captured at
// placement time. It preserves the historical name and price even if the
// menu item changes later.
type Line struct {
	FoodItemID   string `json:"foodItemId"`
	FoodItemName string `json:"foodItemName"`
	Quantity     int    `json:"quantity"`
	Price        int    `json:"price"`
	TotalPrice   int    `json:"totalPrice"`
}

type Order struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName"`
	UserEmail   string     `json:"userEmail"`
	Items       []Line     `json:"items"`
	TotalAmount int        `json:"totalAmount"`
	Status      Status     `json:"status"`
	QRCode      string     `json:"qrCode"`
	CreatedAt   time.Time  `json:"createdAt"`
	FulfilledAt *time.Time `json:"fulfilledAt,omitempty"`
}

// Identity is the authenticated user placing an order, as supplied by
// the identity provider. The core trusts this input.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// LineRequest is one requested (item, quantity) pair of a placement.
type LineRequest struct {
	FoodItemID string `json:"foodItemId"`
	Quantity   int    `json:"quantity"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	UserID *string
	Status *Status
}
