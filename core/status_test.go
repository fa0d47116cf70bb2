package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinirdc/resto-op/ledger"
	"github.com/infinirdc/resto-op/models"
)

func TestTransitionStatusMovesOpenOrder(t *testing.T) {
	store := newMemLedger()
	store.seed("orders", "o1", ledger.Document{"table": "T1", "status": models.StatusPending})

	err := TransitionStatus(context.Background(), store, "o1", models.StatusInPreparation)

	require.NoError(t, err)
	order, ok := store.get("orders", "o1")
	require.True(t, ok)
	assert.Equal(t, models.StatusInPreparation, order["status"])
	assert.NotNil(t, order["updated_at"])
}

func TestTransitionStatusUnknownOrder(t *testing.T) {
	store := newMemLedger()

	err := TransitionStatus(context.Background(), store, "missing", models.StatusInPreparation)

	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestTransitionStatusRefusesSettledOrder(t *testing.T) {
	store := newMemLedger()
	store.seed("orders", "o1", ledger.Document{"table": "T1", "status": models.StatusPaid})

	err := TransitionStatus(context.Background(), store, "o1", models.StatusPending)

	require.ErrorIs(t, err, ErrOrderClosed)
	order, _ := store.get("orders", "o1")
	assert.Equal(t, models.StatusPaid, order["status"], "a settled order must stay settled")
}

// A kitchen-state update racing a billing transaction must lose: once billing
// settles the order, the update cannot flip it back to an open state, so the
// order can never be billed (and its stock deducted) a second time.
func TestTransitionStatusCannotResurrectPaidOrder(t *testing.T) {
	store := newMemLedger()
	store.seed("ingredients", "flour", ledger.Document{"stock": 10.0})
	store.seed("orders", "o1", ledger.Document{"table": "T1", "status": models.StatusPending})

	errTicketMoved := errors.New("ticket moved")
	settle := func(tx ledger.Tx) (string, error) {
		doc, err := tx.Read("orders", "o1")
		if err != nil {
			return "", err
		}
		status, _ := doc["status"].(string)
		if status != models.StatusPending && status != models.StatusInPreparation {
			return "", errTicketMoved
		}
		if err := tx.UpdateFields("orders", "o1", ledger.Document{"status": models.StatusPaid}); err != nil {
			return "", err
		}
		return "T1", nil
	}

	_, err := newTestReserver(store).Reserve(context.Background(), Demand{"flour": 6}, settle)
	require.NoError(t, err)
	assert.Equal(t, 4.0, store.stock("flour"))

	// a stale terminal tries to mark the just-settled order in preparation
	err = TransitionStatus(context.Background(), store, "o1", models.StatusInPreparation)
	require.ErrorIs(t, err, ErrOrderClosed)

	order, _ := store.get("orders", "o1")
	assert.Equal(t, models.StatusPaid, order["status"])

	// so a second settle finds nothing open and deducts nothing
	_, err = newTestReserver(store).Reserve(context.Background(), Demand{"flour": 6}, settle)
	require.ErrorIs(t, err, errTicketMoved)
	assert.Equal(t, 4.0, store.stock("flour"), "stock must not be deducted twice")
}
