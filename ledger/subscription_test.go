package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionPushCoalesces(t *testing.T) {
	sub := &Subscription{ch: make(chan []Document, 1), cancel: func() {}}
	sub.C = sub.ch

	// a slow consumer only ever sees the newest result set
	sub.push([]Document{{"v": 1}})
	sub.push([]Document{{"v": 2}})
	sub.push([]Document{{"v": 3}})

	got := <-sub.C
	assert.Equal(t, 3, got[0]["v"])

	select {
	case stale := <-sub.C:
		t.Fatalf("unexpected stale set: %v", stale)
	default:
	}
}

func TestSubscriptionCancelIdempotent(t *testing.T) {
	calls := 0
	sub := &Subscription{ch: make(chan []Document, 1), cancel: func() { calls++ }}
	sub.C = sub.ch

	sub.Cancel()
	sub.Cancel()

	assert.Equal(t, 1, calls)
}
