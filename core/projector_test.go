package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/infinirdc/resto-op/models"
)

func TestIsOrderable(t *testing.T) {
	withFlour := menuItem("Bread", 2.50, models.RecipeLine{Ingredient_id: "flour", Qty: 5})
	noRecipe := menuItem("Water", 1.00)
	twoLines := menuItem("Cake", 4.00,
		models.RecipeLine{Ingredient_id: "flour", Qty: 2},
		models.RecipeLine{Ingredient_id: "sugar", Qty: 1},
	)

	tests := []struct {
		name     string
		item     models.MenuItem
		snapshot map[string]float64
		want     bool
	}{
		{"stock below requirement", withFlour, map[string]float64{"flour": 3}, false},
		{"stock exactly covers requirement", withFlour, map[string]float64{"flour": 5}, true},
		{"ingredient missing from snapshot", withFlour, map[string]float64{"sugar": 10}, false},
		{"empty recipe always orderable", noRecipe, map[string]float64{}, true},
		{"empty recipe ignores snapshot", noRecipe, nil, true},
		{"all lines covered", twoLines, map[string]float64{"flour": 2, "sugar": 1}, true},
		{"one line short fails the item", twoLines, map[string]float64{"flour": 10, "sugar": 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOrderable(tt.item, tt.snapshot))
		})
	}
}
