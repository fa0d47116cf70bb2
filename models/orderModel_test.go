package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOrderJSONExposesOrderIdOnly(t *testing.T) {
	oid := primitive.NewObjectID()
	order := Order{
		ID:       oid,
		Order_id: oid.Hex(),
		Table:    "T1",
		Status:   StatusPending,
		Channel:  ChannelInHouse,
	}

	payload, err := json.Marshal(order)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &fields))

	assert.Equal(t, oid.Hex(), fields["order_id"])
	assert.NotContains(t, fields, "ID", "the raw document id must not leak into responses")
}
