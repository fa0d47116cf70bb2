package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecipeLine ties a menu item to one ingredient it consumes per unit sold.
type RecipeLine struct {
	Ingredient_id string  `bson:"ingredient_id" json:"ingredient_id" validate:"required"`
	Qty           float64 `bson:"qty" json:"qty" validate:"required,gt=0"`
}

// DistinctIngredientIDs lists the ingredients a recipe references, each id
// once, in first-seen order.
func DistinctIngredientIDs(recipe []RecipeLine) []string {
	seen := make(map[string]bool, len(recipe))
	ids := make([]string, 0, len(recipe))
	for _, line := range recipe {
		if seen[line.Ingredient_id] {
			continue
		}
		seen[line.Ingredient_id] = true
		ids = append(ids, line.Ingredient_id)
	}
	return ids
}

// MenuItem is a sellable dish. An empty recipe means the item is always
// available and selling it has no stock effect.
type MenuItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Item_id    string             `bson:"item_id" json:"item_id"`
	Name       *string            `bson:"name" json:"name" validate:"required,min=1,max=100"`
	Price      *float64           `bson:"price" json:"price" validate:"required,gte=0"`
	Recipe     []RecipeLine       `bson:"recipe" json:"recipe" validate:"dive"`
	Created_at time.Time          `bson:"created_at" json:"created_at"`
	Updated_at time.Time          `bson:"updated_at" json:"updated_at"`
}
