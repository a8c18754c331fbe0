package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"ninelives-store-api/pkg/uid"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore implements Store on a single SQLite database.
// Thread-safe with WAL mode; one writer at a time, guarded by mu, which is
// what makes RunTransaction's read-then-write atomic against concurrent
// writers in-process.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	hub *hub

	tsMu   sync.Mutex
	lastTS time.Time
}

// NewSQLiteStore opens (or creates) the document database at dbPath.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.hub = newHub(s.fetchCollection, s.fetchDocument)

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return s, nil
}

func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(collection, created_at);
	`
	_, err := db.Exec(query)
	return err
}

// timestamp returns a server-assigned creation time, strictly increasing so
// descending-order queries are stable even under same-nanosecond commits.
func (s *SQLiteStore) timestamp() time.Time {
	s.tsMu.Lock()
	defer s.tsMu.Unlock()

	now := time.Now().UTC()
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Nanosecond)
	}
	s.lastTS = now
	return now
}

// Get retrieves a single document. Returns ErrNotFound if it does not exist.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDoc(ctx, s.db, collection, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getDoc(ctx context.Context, q querier, collection, id string) (*Document, error) {
	var body string
	var createdNs int64
	err := q.QueryRowContext(ctx,
		`SELECT body, created_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&body, &createdNs)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	return &Document{ID: id, Body: json.RawMessage(body), CreatedAt: time.Unix(0, createdNs).UTC()}, nil
}

// Set upserts a document. The creation timestamp of an existing document is
// preserved so ordering does not change on rewrite.
func (s *SQLiteStore) Set(ctx context.Context, collection, id string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	s.mu.Lock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body`,
		collection, id, string(body), s.timestamp().UnixNano())
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}

	s.hub.notify(collection)
	return nil
}

// Add inserts a document under a generated id.
func (s *SQLiteStore) Add(ctx context.Context, collection string, v interface{}) (string, error) {
	id := uid.New()
	if err := s.Set(ctx, collection, id, v); err != nil {
		return "", err
	}
	return id, nil
}

// Update merges fields into an existing document's body.
// Returns ErrNotFound if the document does not exist.
func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET body = json_patch(body, ?) WHERE collection = ? AND id = ?`,
		string(patch), collection, id)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.hub.notify(collection)
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}

	s.hub.notify(collection)
	return nil
}

// List returns the documents of a collection, oldest-first unless
// OrderByCreatedDesc is given.
func (s *SQLiteStore) List(ctx context.Context, collection string, opts ...Option) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchCollection(ctx, collection, buildQuery(opts))
}

func (s *SQLiteStore) fetchCollection(ctx context.Context, collection string, q Query) ([]Document, error) {
	query := `SELECT id, body, created_at FROM documents WHERE collection = ? ORDER BY created_at`
	if q.OrderDesc {
		query += ` DESC`
	}
	args := []interface{}{collection}
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var id, body string
		var createdNs int64
		if err := rows.Scan(&id, &body, &createdNs); err != nil {
			return nil, err
		}
		docs = append(docs, Document{
			ID:        id,
			Body:      json.RawMessage(body),
			CreatedAt: time.Unix(0, createdNs).UTC(),
		})
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) fetchDocument(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDoc(ctx, s.db, collection, id)
}

// jsonPath builds a JSON1 path for a possibly-nested field name, quoting each
// segment so ids with hyphens ("votes.cyber-pink") work.
func jsonPath(field string) string {
	segments := strings.Split(field, ".")
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range segments {
		b.WriteString(`."`)
		b.WriteString(seg)
		b.WriteString(`"`)
	}
	return b.String()
}

// Increment atomically adds delta to a numeric field, treating a missing
// field as zero. Single UPDATE statement, so no prior read is needed and
// concurrent increments never lose updates.
func (s *SQLiteStore) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	path := jsonPath(field)

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET body = json_set(body, ?, COALESCE(json_extract(body, ?), 0) + ?)
		WHERE collection = ? AND id = ?`,
		path, path, delta, collection, id)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to increment %s/%s %s: %w", collection, id, field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.hub.notify(collection)
	return nil
}

// sqliteTx implements Tx over an open database transaction. The store's
// writer lock is held for the whole RunTransaction call.
type sqliteTx struct {
	ctx     context.Context
	tx      *sql.Tx
	store   *SQLiteStore
	touched map[string]bool
}

func (t *sqliteTx) Get(collection, id string) (*Document, error) {
	return getDoc(t.ctx, t.tx, collection, id)
}

func (t *sqliteTx) Set(collection, id string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO documents (collection, id, body, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body`,
		collection, id, string(body), t.store.timestamp().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}
	t.touched[collection] = true
	return nil
}

func (t *sqliteTx) Update(collection, id string, fields map[string]interface{}) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE documents SET body = json_patch(body, ?) WHERE collection = ? AND id = ?`,
		string(patch), collection, id)
	if err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	t.touched[collection] = true
	return nil
}

func (t *sqliteTx) Delete(collection, id string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}
	t.touched[collection] = true
	return nil
}

// RunTransaction executes fn with a consistent read-then-write view. The
// transaction commits only if fn returns nil; otherwise everything rolls
// back and the error is returned unchanged.
func (s *SQLiteStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stx := &sqliteTx{ctx: ctx, tx: tx, store: s, touched: make(map[string]bool)}
	if err := fn(stx); err != nil {
		tx.Rollback()
		s.mu.Unlock()
		return err
	}
	if err := tx.Commit(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.mu.Unlock()

	for col := range stx.touched {
		s.hub.notify(col)
	}
	return nil
}

type batchOp struct {
	del        bool
	collection string
	id         string
	body       []byte
	err        error
}

// sqliteBatch queues writes for a single atomic commit.
type sqliteBatch struct {
	ops []batchOp
}

func (b *sqliteBatch) Set(collection, id string, v interface{}) {
	body, err := json.Marshal(v)
	b.ops = append(b.ops, batchOp{collection: collection, id: id, body: body, err: err})
}

func (b *sqliteBatch) Add(collection string, v interface{}) string {
	id := uid.New()
	b.Set(collection, id, v)
	return id
}

func (b *sqliteBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{del: true, collection: collection, id: id})
}

// RunBatch applies every queued write in one transaction. Either all writes
// commit or none do, which is what makes first-run seeding safe to race.
func (s *SQLiteStore) RunBatch(ctx context.Context, fn func(b Batch) error) error {
	batch := &sqliteBatch{}
	if err := fn(batch); err != nil {
		return err
	}
	for _, op := range batch.ops {
		if op.err != nil {
			return fmt.Errorf("failed to marshal batch document: %w", op.err)
		}
	}
	if len(batch.ops) == 0 {
		return nil
	}

	s.mu.Lock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to begin batch: %w", err)
	}

	touched := make(map[string]bool)
	for _, op := range batch.ops {
		if op.del {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = ? AND id = ?`, op.collection, op.id)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO documents (collection, id, body, created_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body`,
				op.collection, op.id, string(op.body), s.timestamp().UnixNano())
		}
		if err != nil {
			tx.Rollback()
			s.mu.Unlock()
			return fmt.Errorf("failed to apply batch write %s/%s: %w", op.collection, op.id, err)
		}
		touched[op.collection] = true
	}

	if err := tx.Commit(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	s.mu.Unlock()

	for col := range touched {
		s.hub.notify(col)
	}
	return nil
}

// Watch subscribes to a collection. See Store.Watch.
func (s *SQLiteStore) Watch(ctx context.Context, collection string, opts ...Option) (<-chan []Document, func()) {
	return s.hub.watchCollection(ctx, collection, buildQuery(opts))
}

// WatchDoc subscribes to a single document. See Store.WatchDoc.
func (s *SQLiteStore) WatchDoc(ctx context.Context, collection, id string) (<-chan *Document, func()) {
	return s.hub.watchDocument(ctx, collection, id)
}

// Counts returns the number of documents per collection.
func (s *SQLiteStore) Counts(ctx context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT collection, COUNT(*) FROM documents GROUP BY collection`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var col string
		var n int64
		if err := rows.Scan(&col, &n); err != nil {
			return nil, err
		}
		counts[col] = n
	}
	return counts, rows.Err()
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close shuts down the subscription hub and the database connection.
func (s *SQLiteStore) Close() error {
	s.hub.close()
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
