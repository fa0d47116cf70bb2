package core

import "github.com/infinirdc/resto-op/models"

// IsOrderable reports whether every recipe line of item is covered by the
// given stock snapshot. Vacuously true for an empty recipe.
//
// This is advisory UI state computed from a possibly stale snapshot. It never
// gates the reservation transaction, which re-reads stock inside its atomic
// unit.
func IsOrderable(item models.MenuItem, snapshot map[string]float64) bool {
	for _, line := range item.Recipe {
		stock, ok := snapshot[line.Ingredient_id]
		if !ok || stock < line.Qty {
			return false
		}
	}
	return true
}
