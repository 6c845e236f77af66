package menu

import "time"

// Item is a food item on the canteen menu. Price is in the smallest
// currency unit. IsAvailable is derived from RemainingCount and is never
// set independently of it.
type Item struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          int       `json:"price"`
	Category       string    `json:"category"`
	TotalCount     int       `json:"totalCount"`
	RemainingCount int       `json:"remainingCount"`
	ImageURL       *string   `json:"imageUrl,omitempty"`
	IsAvailable    bool      `json:"isAvailable"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Filter narrows menu listings.
type Filter struct {
	Category  *string
	Available *bool
}

// NewItemInput carries the admin-supplied fields of a new menu item.
type NewItemInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int     `json:"price"`
	Category    string  `json:"category"`
	TotalCount  int     `json:"totalCount"`
	ImageURL    *string `json:"imageUrl"`
}

// Patch is a partial update of a menu item. Nil fields are left
// untouched. Availability is always rederived from the remaining count,
// so it is not patchable.
type Patch struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Price          *int    `json:"price"`
	Category       *string `json:"category"`
	TotalCount     *int    `json:"totalCount"`
	RemainingCount *int    `json:"remainingCount"`
	ImageURL       *string `json:"imageUrl"`
}
