package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/infinirdc/resto-op/models"
)

func menuItem(name string, price float64, recipe ...models.RecipeLine) models.MenuItem {
	return models.MenuItem{Name: &name, Price: &price, Recipe: recipe}
}

func TestAggregateDemand(t *testing.T) {
	catalog := map[string]models.MenuItem{
		"bread": menuItem("Bread", 2.50, models.RecipeLine{Ingredient_id: "flour", Qty: 3}),
		"cake": menuItem("Cake", 4.00,
			models.RecipeLine{Ingredient_id: "flour", Qty: 2},
			models.RecipeLine{Ingredient_id: "sugar", Qty: 1.5},
		),
		"water": menuItem("Water", 1.00),
	}

	tests := []struct {
		name      string
		purchased []PurchasedItem
		want      Demand
	}{
		{
			name:      "single item",
			purchased: []PurchasedItem{{ItemID: "bread", Qty: 3}},
			want:      Demand{"flour": 9},
		},
		{
			name: "shared ingredient sums across items",
			purchased: []PurchasedItem{
				{ItemID: "bread", Qty: 1},
				{ItemID: "cake", Qty: 2},
			},
			want: Demand{"flour": 7, "sugar": 3},
		},
		{
			name:      "empty recipe contributes nothing",
			purchased: []PurchasedItem{{ItemID: "water", Qty: 5}},
			want:      Demand{},
		},
		{
			name:      "unknown item contributes nothing",
			purchased: []PurchasedItem{{ItemID: "ghost", Qty: 2}, {ItemID: "bread", Qty: 1}},
			want:      Demand{"flour": 3},
		},
		{
			name:      "non-positive quantity ignored",
			purchased: []PurchasedItem{{ItemID: "bread", Qty: 0}, {ItemID: "cake", Qty: -1}},
			want:      Demand{},
		},
		{
			name:      "empty cart",
			purchased: nil,
			want:      Demand{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateDemand(tt.purchased, catalog))
		})
	}
}

func TestAggregateDemandOrderIndependent(t *testing.T) {
	catalog := map[string]models.MenuItem{
		"bread": menuItem("Bread", 2.50, models.RecipeLine{Ingredient_id: "flour", Qty: 3}),
		"cake":  menuItem("Cake", 4.00, models.RecipeLine{Ingredient_id: "flour", Qty: 2}),
	}

	forward := []PurchasedItem{{ItemID: "bread", Qty: 2}, {ItemID: "cake", Qty: 1}}
	reversed := []PurchasedItem{{ItemID: "cake", Qty: 1}, {ItemID: "bread", Qty: 2}}

	assert.Equal(t, AggregateDemand(forward, catalog), AggregateDemand(reversed, catalog))
	assert.Equal(t, AggregateDemand(forward, catalog), AggregateDemand(forward, catalog))
}

func TestAggregateDemandValuesStrictlyPositive(t *testing.T) {
	catalog := map[string]models.MenuItem{
		"bread": menuItem("Bread", 2.50, models.RecipeLine{Ingredient_id: "flour", Qty: 0.5}),
	}
	demand := AggregateDemand([]PurchasedItem{{ItemID: "bread", Qty: 1}}, catalog)
	for id, qty := range demand {
		assert.Greater(t, qty, 0.0, "ingredient %s", id)
	}
}
