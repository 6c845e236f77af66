package inventory

import (
	"fmt"
	"strings"
)

// InsufficientStockError reports every short item in a batch, not just the
// first one found.
type InsufficientStockError struct {
	Items []string // item names
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"The following items are not available in sufficient quantity: %s",
		strings.Join(e.Items, ", "),
	)
}

// ItemsNotFoundError reports every unknown item id in a batch.
type ItemsNotFoundError struct {
	IDs []string
}

func (e *ItemsNotFoundError) Error() string {
	return fmt.Sprintf("one or more food items not found: %s", strings.Join(e.IDs, ", "))
}
