package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Ingredient struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Ingredient_id string             `bson:"ingredient_id" json:"ingredient_id"`
	Name          *string            `bson:"name" json:"name" validate:"required,min=1,max=100"`
	Unit          *string            `bson:"unit" json:"unit" validate:"required,min=1,max=20"`
	Stock         *float64           `bson:"stock" json:"stock" validate:"required,gte=0"`
	Created_at    time.Time          `bson:"created_at" json:"created_at"`
	Updated_at    time.Time          `bson:"updated_at" json:"updated_at"`
}
