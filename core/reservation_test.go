package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinirdc/resto-op/ledger"
)

func createOrderMutation(total float64) OrderMutation {
	return func(tx ledger.Tx) (string, error) {
		return tx.Create("orders", ledger.Document{
			"table":  "T1",
			"total":  total,
			"status": "PENDING",
		})
	}
}

func newTestReserver(store Ledger) *Reserver {
	return NewReserver(store, zerolog.Nop())
}

func TestReserveDeductsExactly(t *testing.T) {
	store := newMemLedger()
	store.seed("ingredients", "flour", ledger.Document{"name": "Flour", "stock": 10.0})

	// cart of 3 bread, recipe 3 flour each
	orderID, err := newTestReserver(store).Reserve(context.Background(), Demand{"flour": 9}, createOrderMutation(7.50))

	require.NoError(t, err)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, 1.0, store.stock("flour"))

	order, ok := store.get("orders", orderID)
	require.True(t, ok, "order must exist after a successful reservation")
	assert.Equal(t, "PENDING", order["status"])
}

func TestReserveInsufficientStockAborts(t *testing.T) {
	store := newMemLedger()
	store.seed("ingredients", "flour", ledger.Document{"name": "Flour", "stock": 10.0})

	// cart of 4 bread needs 12 flour, only 10 in stock
	_, err := newTestReserver(store).Reserve(context.Background(), Demand{"flour": 12}, createOrderMutation(10.00))

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "flour", short.IngredientID)
	assert.Equal(t, 10.0, store.stock("flour"), "stock must be untouched after an abort")
	assert.Zero(t, store.count("orders"), "no order may be created on abort")
}

func TestReserveAllOrNothingAcrossIngredients(t *testing.T) {
	store := newMemLedger()
	store.seed("ingredients", "flour", ledger.Document{"stock": 100.0})
	store.seed("ingredients", "sugar", ledger.Document{"stock": 1.0})

	_, err := newTestReserver(store).Reserve(context.Background(),
		Demand{"flour": 5, "sugar": 2}, createOrderMutation(4.00))

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "sugar", short.IngredientID)
	// flour had plenty, but nothing may be written for it either
	assert.Equal(t, 100.0, store.stock("flour"))
	assert.Equal(t, 1.0, store.stock("sugar"))
}

func TestReserveMissingIngredientAborts(t *testing.T) {
	store := newMemLedger()
	store.seed("ingredients", "flour", ledger.Document{"stock": 10.0})

	_, err := newTestReserver(store).Reserve(context.Background(),
		Demand{"flour": 1, "saffron": 0.1}, createOrderMutation(9.00))

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "saffron", short.IngredientID)
	assert.Equal(t, 10.0, store.stock("flour"))
}

func TestReserveMutationFailureRollsBackStock(t *testing.T) {
	store := newMemLedger()
	store.seed("ingredients", "flour", ledger.Document{"stock": 10.0})

	boom := errors.New("order write failed")
	_, err := newTestReserver(store).Reserve(context.Background(), Demand{"flour": 4},
		func(tx ledger.Tx) (string, error) { return "", boom })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 10.0, store.stock("flour"), "stock deduction must roll back with the order write")
}

func TestReserveEmptyDemandStillAppliesMutation(t *testing.T) {
	store := newMemLedger()

	orderID, err := newTestReserver(store).Reserve(context.Background(), Demand{}, createOrderMutation(1.00))

	require.NoError(t, err)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, 1, store.count("orders"))
}

func TestReserveConcurrentOverlappingDemand(t *testing.T) {
	store := newMemLedger()
	store.seed("ingredients", "flour", ledger.Document{"stock": 10.0})

	rv := newTestReserver(store)
	results := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// each wants 6, stock covers only one of them
			_, results[i] = rv.Reserve(context.Background(), Demand{"flour": 6}, createOrderMutation(6.00))
		}(i)
	}
	wg.Wait()

	var successes, shorts int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		shorts++
	}

	assert.Equal(t, 1, successes, "exactly one reservation wins")
	assert.Equal(t, 1, shorts, "the loser aborts with insufficient stock")
	assert.Equal(t, 4.0, store.stock("flour"))
	assert.GreaterOrEqual(t, store.stock("flour"), 0.0, "stock never goes negative")
}
