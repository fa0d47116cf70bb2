package ledger

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Subscription is a cancelable realtime feed over one collection. C carries
// full result sets: the current state first, then a fresh set after every
// change. The channel is closed when the feed ends.
type Subscription struct {
	C <-chan []Document

	ch     chan []Document
	cancel context.CancelFunc
	once   sync.Once
}

// Cancel tears the feed down. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// push replaces any undelivered set with the newer one, so a slow consumer
// always wakes up to current state.
func (s *Subscription) push(docs []Document) {
	for {
		select {
		case s.ch <- docs:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

func (m *Mongo) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	feedCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{ch: make(chan []Document, 1), cancel: cancel}
	sub.C = sub.ch

	coll := m.collection(collection)

	// The stream must be open before the initial query: a write landing
	// between the two would otherwise be in neither the snapshot nor the
	// event feed. A write landing after the stream opens but before the
	// query is in both, which only costs one redundant refresh.
	stream, err := coll.Watch(feedCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, mapFault(err)
	}

	docs, err := queryAll(feedCtx, coll)
	if err != nil {
		stream.Close(context.Background())
		cancel()
		return nil, err
	}
	sub.push(docs)

	go func() {
		defer close(sub.ch)
		defer cancel()
		defer stream.Close(context.Background())

		for stream.Next(feedCtx) {
			refreshed, err := queryAll(feedCtx, coll)
			if err != nil {
				m.log.Error().Err(err).Str("collection", collection).Msg("feed re-query failed")
				return
			}
			sub.push(refreshed)
		}
	}()

	return sub, nil
}

func queryAll(ctx context.Context, coll *mongo.Collection) ([]Document, error) {
	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, mapFault(err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, mapFault(err)
	}
	docs := make([]Document, 0, len(raw))
	for _, d := range raw {
		docs = append(docs, Document(d))
	}
	return docs, nil
}
