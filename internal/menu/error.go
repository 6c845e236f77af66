package menu

import "errors"

var (
	ErrItemNotFound  = errors.New("food item not found")
	ErrMissingFields = errors.New("please provide name, description, price, category, and totalCount")
	ErrInvalidPrice  = errors.New("price must be positive")
	ErrInvalidCount  = errors.New("count must be non-negative")
)
