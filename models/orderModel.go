package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. PAID is only ever written by the reservation transaction.
const (
	StatusPending       = "PENDING"
	StatusInPreparation = "IN_PREPARATION"
	StatusPaid          = "PAID"
)

// Order channels.
const (
	ChannelInHouse = "IN_HOUSE"
	ChannelOnline  = "ONLINE"
)

// LineItem is a snapshot of a menu item at purchase time. Name and price are
// frozen; the recipe is not, so billing resolves it against the current menu.
type LineItem struct {
	Item_id string  `bson:"item_id" json:"item_id" validate:"required"`
	Name    string  `bson:"name" json:"name"`
	Price   float64 `bson:"price" json:"price"`
	Qty     int     `bson:"qty" json:"qty" validate:"required,gt=0"`
}

type ClientInfo struct {
	Name  string `bson:"name" json:"name" validate:"required,min=1,max=100"`
	Phone string `bson:"phone" json:"phone" validate:"required,min=4,max=30"`
}

type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Order_id   string             `bson:"order_id" json:"order_id"`
	Table      string             `bson:"table" json:"table" validate:"required"`
	Client     *ClientInfo        `bson:"client,omitempty" json:"client,omitempty"`
	Items      []LineItem         `bson:"items" json:"items" validate:"required,min=1,dive"`
	Note       *string            `bson:"note,omitempty" json:"note,omitempty"`
	Total      float64            `bson:"total" json:"total"`
	Status     string             `bson:"status" json:"status"`
	Channel    string             `bson:"channel" json:"channel"`
	Created_at time.Time          `bson:"created_at" json:"created_at"`
	Updated_at time.Time          `bson:"updated_at" json:"updated_at"`
}
