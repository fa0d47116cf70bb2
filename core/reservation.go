package core

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/infinirdc/resto-op/ledger"
)

// Ledger is the slice of the store the reservation needs.
type Ledger interface {
	RunAtomic(ctx context.Context, fn func(tx ledger.Tx) (interface{}, error)) (interface{}, error)
}

// OrderMutation is the order-side write executed in the same atomic unit as
// the stock deduction: create a new order, or flip existing orders to paid.
// It returns the identifier the caller should report (e.g. a new order id).
type OrderMutation func(tx ledger.Tx) (string, error)

// Reserver executes the stock reservation transaction shared by the public
// checkout and the POS billing flow.
type Reserver struct {
	store       Ledger
	ingredients string
	log         zerolog.Logger
}

func NewReserver(store Ledger, log zerolog.Logger) *Reserver {
	return &Reserver{store: store, ingredients: "ingredients", log: log}
}

// Reserve atomically checks that every ingredient in demand has enough stock,
// deducts it, and applies mutate — all in one unit. If any ingredient record
// is missing or short, the whole unit aborts with InsufficientStockError and
// nothing is written, not even for ingredients that did have enough.
//
// Stock is read inside the atomic unit, never from a cache; an advisory
// availability check done beforehand carries no authority here.
func (r *Reserver) Reserve(ctx context.Context, demand Demand, mutate OrderMutation) (string, error) {
	ids := make([]string, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result, err := r.store.RunAtomic(ctx, func(tx ledger.Tx) (interface{}, error) {
		type deduction struct {
			id       string
			newStock float64
		}
		deductions := make([]deduction, 0, len(ids))

		for _, id := range ids {
			doc, err := tx.Read(r.ingredients, id)
			if errors.Is(err, ledger.ErrNotFound) {
				return nil, &InsufficientStockError{IngredientID: id}
			}
			if err != nil {
				return nil, err
			}
			stock, ok := numeric(doc["stock"])
			if !ok || stock < demand[id] {
				return nil, &InsufficientStockError{IngredientID: id}
			}
			deductions = append(deductions, deduction{id: id, newStock: stock - demand[id]})
		}

		now := time.Now().UTC()
		for _, d := range deductions {
			err := tx.UpdateFields(r.ingredients, d.id, ledger.Document{
				"stock":      d.newStock,
				"updated_at": now,
			})
			if err != nil {
				return nil, err
			}
		}

		return mutate(tx)
	})
	if err != nil {
		var short *InsufficientStockError
		if errors.As(err, &short) {
			r.log.Info().Str("ingredient_id", short.IngredientID).Msg("reservation aborted, insufficient stock")
		}
		return "", err
	}

	id, _ := result.(string)
	return id, nil
}

// numeric tolerates the integer widths the store may hand back for a quantity
// that was written as a double.
func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
