package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/infinirdc/resto-op/ledger"
)

// memLedger is an in-memory stand-in for the document store. A single mutex
// serializes atomic units, and a pre-transaction snapshot gives all-or-nothing
// rollback, so it honors the same contract the reservation relies on.
type memLedger struct {
	mu   sync.Mutex
	data map[string]map[string]ledger.Document
	next int
}

func newMemLedger() *memLedger {
	return &memLedger{data: make(map[string]map[string]ledger.Document)}
}

func (m *memLedger) seed(collection, id string, doc ledger.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]ledger.Document)
	}
	m.data[collection][id] = cloneDoc(doc)
}

func (m *memLedger) get(collection, id string) (ledger.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return nil, false
	}
	return cloneDoc(doc), true
}

func (m *memLedger) count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[collection])
}

func (m *memLedger) stock(id string) float64 {
	doc, ok := m.get("ingredients", id)
	if !ok {
		return -1
	}
	v, _ := numeric(doc["stock"])
	return v
}

func (m *memLedger) RunAtomic(_ context.Context, fn func(tx ledger.Tx) (interface{}, error)) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := cloneData(m.data)
	result, err := fn(&memTx{m: m})
	if err != nil {
		m.data = snapshot
		return nil, err
	}
	return result, nil
}

type memTx struct {
	m *memLedger
}

func (t *memTx) Read(collection, id string) (ledger.Document, error) {
	doc, ok := t.m.data[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ledger.ErrNotFound, collection, id)
	}
	return cloneDoc(doc), nil
}

func (t *memTx) Write(collection, id string, doc ledger.Document) error {
	if t.m.data[collection] == nil {
		t.m.data[collection] = make(map[string]ledger.Document)
	}
	t.m.data[collection][id] = cloneDoc(doc)
	return nil
}

func (t *memTx) Create(collection string, doc ledger.Document) (string, error) {
	t.m.next++
	id := fmt.Sprintf("doc-%d", t.m.next)
	stamped := cloneDoc(doc)
	stamped["created_at"] = time.Now().UTC()
	if t.m.data[collection] == nil {
		t.m.data[collection] = make(map[string]ledger.Document)
	}
	t.m.data[collection][id] = stamped
	return id, nil
}

func (t *memTx) UpdateFields(collection, id string, fields ledger.Document) error {
	doc, ok := t.m.data[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ledger.ErrNotFound, collection, id)
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (t *memTx) Delete(collection, id string) error {
	delete(t.m.data[collection], id)
	return nil
}

func cloneData(data map[string]map[string]ledger.Document) map[string]map[string]ledger.Document {
	out := make(map[string]map[string]ledger.Document, len(data))
	for coll, docs := range data {
		out[coll] = make(map[string]ledger.Document, len(docs))
		for id, doc := range docs {
			out[coll][id] = cloneDoc(doc)
		}
	}
	return out
}

func cloneDoc(doc ledger.Document) ledger.Document {
	out := make(ledger.Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneDoc(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
