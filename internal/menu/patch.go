package menu

import "strings"

// ApplyPatch returns a copy of item with the patch applied. It validates
// every touched field, re-clamps the remaining count so that
// 0 <= remaining <= total, and rederives IsAvailable. A partial write can
// therefore never leave the item in an inconsistent state.
func ApplyPatch(item Item, p Patch) (Item, error) {
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		item.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		if *p.Price <= 0 {
			return Item{}, ErrInvalidPrice
		}
		item.Price = *p.Price
	}
	if p.Category != nil {
		item.Category = strings.ToLower(strings.TrimSpace(*p.Category))
	}
	if p.TotalCount != nil {
		if *p.TotalCount < 0 {
			return Item{}, ErrInvalidCount
		}
		item.TotalCount = *p.TotalCount
	}
	if p.RemainingCount != nil {
		if *p.RemainingCount < 0 {
			return Item{}, ErrInvalidCount
		}
		item.RemainingCount = *p.RemainingCount
	}
	if p.ImageURL != nil {
		item.ImageURL = p.ImageURL
	}

	if item.RemainingCount > item.TotalCount {
		item.RemainingCount = item.TotalCount
	}
	item.IsAvailable = item.RemainingCount > 0

	return item, nil
}
