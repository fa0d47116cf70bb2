package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistinctIngredientIDs(t *testing.T) {
	tests := []struct {
		name   string
		recipe []RecipeLine
		want   []string
	}{
		{
			name:   "empty recipe",
			recipe: nil,
			want:   []string{},
		},
		{
			name: "repeated ingredient counted once",
			recipe: []RecipeLine{
				{Ingredient_id: "flour", Qty: 3},
				{Ingredient_id: "sugar", Qty: 1},
				{Ingredient_id: "flour", Qty: 2},
			},
			want: []string{"flour", "sugar"},
		},
		{
			name: "order preserved",
			recipe: []RecipeLine{
				{Ingredient_id: "sugar", Qty: 1},
				{Ingredient_id: "flour", Qty: 1},
			},
			want: []string{"sugar", "flour"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DistinctIngredientIDs(tt.recipe))
		})
	}
}
