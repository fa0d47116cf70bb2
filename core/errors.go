package core

import "fmt"

// InsufficientStockError is a business abort, not a system fault. It is
// expected under contention: the caller shows a message, refreshes the view
// and lets the user retry.
type InsufficientStockError struct {
	IngredientID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for ingredient %s", e.IngredientID)
}
