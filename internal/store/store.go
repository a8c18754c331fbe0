package store

import (
	"context"
	"encoding/json"
	"time"
)

// StoreError is a sentinel error type for document store failures.
type StoreError string

func (e StoreError) Error() string { return string(e) }

const (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound StoreError = "document not found"

	// ErrClosed indicates the store has been closed.
	ErrClosed StoreError = "store is closed"
)

// Document is a single record in a collection. Body holds the marshaled JSON
// of whatever the caller stored; CreatedAt is assigned by the store and is
// monotonic within one store instance, so it is safe to order by.
type Document struct {
	ID        string          `json:"id"`
	Body      json.RawMessage `json:"body"`
	CreatedAt time.Time       `json:"created_at"`
}

// Decode unmarshals the document body into v.
func (d *Document) Decode(v interface{}) error {
	return json.Unmarshal(d.Body, v)
}

// Query holds list/watch options.
type Query struct {
	OrderDesc bool
	Limit     int
}

// Option configures a List or Watch call.
type Option func(*Query)

// OrderByCreatedDesc orders results newest-first.
func OrderByCreatedDesc() Option {
	return func(q *Query) { q.OrderDesc = true }
}

// WithLimit caps the number of results.
func WithLimit(n int) Option {
	return func(q *Query) { q.Limit = n }
}

func buildQuery(opts []Option) Query {
	var q Query
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Tx is the read-then-write view inside RunTransaction. All operations apply
// as a unit against concurrent conflicting writers.
type Tx interface {
	Get(collection, id string) (*Document, error)
	Set(collection, id string, v interface{}) error
	Update(collection, id string, fields map[string]interface{}) error
	Delete(collection, id string) error
}

// Batch accumulates writes that commit atomically.
type Batch interface {
	Set(collection, id string, v interface{})
	Add(collection string, v interface{}) string
	Delete(collection, id string)
}

// Store is the document database every subsystem persists through: schemaless
// collections with get/set/update/delete, generated-id inserts, an
// order-by-time query, atomic transactions and batches, an atomic numeric
// increment, and live subscriptions that redeliver the full current result
// set on every change.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Set(ctx context.Context, collection, id string, v interface{}) error
	Add(ctx context.Context, collection string, v interface{}) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string, opts ...Option) ([]Document, error)

	// Increment adds delta to a numeric field without a prior read. The field
	// path may be nested ("votes.cyber-pink").
	Increment(ctx context.Context, collection, id, field string, delta int64) error

	// RunTransaction executes fn atomically. A nil error from fn commits.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	// RunBatch commits every write queued on the batch as a single unit.
	RunBatch(ctx context.Context, fn func(b Batch) error) error

	// Watch delivers the full current result set immediately and again after
	// every committed change to the collection. The stop function releases
	// the subscription; the channel closes when stopped or ctx is done.
	Watch(ctx context.Context, collection string, opts ...Option) (<-chan []Document, func())

	// WatchDoc is Watch for a single document. A nil delivery means the
	// document does not exist (yet, or anymore).
	WatchDoc(ctx context.Context, collection, id string) (<-chan *Document, func())

	// Counts returns per-collection document counts for the stats surface.
	Counts(ctx context.Context) (map[string]int64, error)

	Close() error
}
