// Package ledger wraps the document store behind the small capability the rest
// of the code is written against: plain document operations, a cancelable
// realtime subscription, and RunAtomic, the serializable read-check-write unit
// the stock reservation depends on.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Document is a raw ledger record.
type Document = map[string]interface{}

// Tx is the view of the store available inside an atomic unit. Reads through a
// Tx see the transaction's snapshot, never a cache.
type Tx interface {
	Read(collection, id string) (Document, error)
	Write(collection, id string, doc Document) error
	Create(collection string, doc Document) (string, error)
	UpdateFields(collection, id string, fields Document) error
	Delete(collection, id string) error
}

// Store is the full ledger capability.
type Store interface {
	Read(ctx context.Context, collection, id string) (Document, error)
	Write(ctx context.Context, collection, id string, doc Document) error
	Create(ctx context.Context, collection string, doc Document) (string, error)
	UpdateFields(ctx context.Context, collection, id string, fields Document) error
	Delete(ctx context.Context, collection, id string) error

	// RunAtomic executes fn as one all-or-nothing unit. The store retries fn
	// transparently on transient write conflicts; an error returned by fn
	// aborts the unit and is passed back unchanged.
	RunAtomic(ctx context.Context, fn func(tx Tx) (interface{}, error)) (interface{}, error)

	// Subscribe streams full result sets for a collection, starting with the
	// current state. Exactly one handle should be live per view context.
	Subscribe(ctx context.Context, collection string) (*Subscription, error)
}

// Mongo is the MongoDB-backed Store. Collection names are prefixed with the
// deployment namespace.
type Mongo struct {
	client *mongo.Client
	dbName string
	prefix string
	log    zerolog.Logger
}

func NewMongo(client *mongo.Client, dbName, prefix string, log zerolog.Logger) *Mongo {
	return &Mongo{client: client, dbName: dbName, prefix: prefix, log: log}
}

func (m *Mongo) collection(name string) *mongo.Collection {
	return m.client.Database(m.dbName).Collection(m.prefix + "_" + name)
}

// idFilter accepts both ObjectID hex strings and literal string ids.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

func readOne(ctx context.Context, coll *mongo.Collection, collection, id string) (Document, error) {
	var raw bson.M
	err := coll.FindOne(ctx, idFilter(id)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, mapFault(err)
	}
	return Document(raw), nil
}

func (m *Mongo) Read(ctx context.Context, collection, id string) (Document, error) {
	return readOne(ctx, m.collection(collection), collection, id)
}

func (m *Mongo) Write(ctx context.Context, collection, id string, doc Document) error {
	_, err := m.collection(collection).ReplaceOne(ctx, idFilter(id), bson.M(doc),
		options.Replace().SetUpsert(true))
	return mapFault(err)
}

func (m *Mongo) Create(ctx context.Context, collection string, doc Document) (string, error) {
	return createOne(ctx, m.collection(collection), doc)
}

func (m *Mongo) UpdateFields(ctx context.Context, collection, id string, fields Document) error {
	return updateOne(ctx, m.collection(collection), collection, id, fields)
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	_, err := m.collection(collection).DeleteOne(ctx, idFilter(id))
	return mapFault(err)
}

func createOne(ctx context.Context, coll *mongo.Collection, doc Document) (string, error) {
	oid := primitive.NewObjectID()
	stamped := bson.M{"_id": oid, "created_at": time.Now().UTC()}
	for k, v := range doc {
		stamped[k] = v
	}
	if _, err := coll.InsertOne(ctx, stamped); err != nil {
		return "", mapFault(err)
	}
	return oid.Hex(), nil
}

func updateOne(ctx context.Context, coll *mongo.Collection, collection, id string, fields Document) error {
	res, err := coll.UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M(fields)})
	if err != nil {
		return mapFault(err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

// mongoTx routes every operation through the session context so the server
// keeps the whole unit on one snapshot.
type mongoTx struct {
	m  *Mongo
	sc mongo.SessionContext
}

func (t *mongoTx) Read(collection, id string) (Document, error) {
	return readOne(t.sc, t.m.collection(collection), collection, id)
}

func (t *mongoTx) Write(collection, id string, doc Document) error {
	_, err := t.m.collection(collection).ReplaceOne(t.sc, idFilter(id), bson.M(doc),
		options.Replace().SetUpsert(true))
	return mapFault(err)
}

func (t *mongoTx) Create(collection string, doc Document) (string, error) {
	return createOne(t.sc, t.m.collection(collection), doc)
}

func (t *mongoTx) UpdateFields(collection, id string, fields Document) error {
	return updateOne(t.sc, t.m.collection(collection), collection, id, fields)
}

func (t *mongoTx) Delete(collection, id string) error {
	_, err := t.m.collection(collection).DeleteOne(t.sc, idFilter(id))
	return mapFault(err)
}

func (m *Mongo) RunAtomic(ctx context.Context, fn func(tx Tx) (interface{}, error)) (interface{}, error) {
	session, err := m.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return fn(&mongoTx{m: m, sc: sc})
	}, txnOpts)
	if err != nil {
		m.log.Debug().Err(err).Msg("atomic unit aborted")
		return nil, mapFault(err)
	}
	return result, nil
}

// mapFault translates driver faults into the ledger taxonomy. Errors that are
// not driver faults (business aborts returned by a transaction body, ErrNotFound
// wraps) pass through unchanged.
func mapFault(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable) {
		return err
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		if srvErr.HasErrorLabel("TransientTransactionError") || srvErr.HasErrorLabel("UnknownTransactionCommitResult") {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
