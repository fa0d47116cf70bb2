package core

import (
	"context"
	"errors"
	"time"

	"github.com/infinirdc/resto-op/ledger"
	"github.com/infinirdc/resto-op/models"
)

// ErrOrderClosed is returned when a kitchen-state transition targets an order
// that is no longer open.
var ErrOrderClosed = errors.New("order already settled")

// TransitionStatus moves an order between kitchen states inside one atomic
// unit. The order's current status is re-read inside the unit, so a billing
// transaction that settles the order concurrently can never be overwritten
// back to an open state: the transition aborts with ErrOrderClosed instead.
func TransitionStatus(ctx context.Context, store Ledger, orderID, status string) error {
	_, err := store.RunAtomic(ctx, func(tx ledger.Tx) (interface{}, error) {
		doc, err := tx.Read("orders", orderID)
		if err != nil {
			return nil, err
		}

		current, _ := doc["status"].(string)
		if current != models.StatusPending && current != models.StatusInPreparation {
			return nil, ErrOrderClosed
		}

		return nil, tx.UpdateFields("orders", orderID, ledger.Document{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	})
	return err
}
