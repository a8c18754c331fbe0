package store

import (
	"context"
	"log"
	"sync"
)

type fetchCollectionFunc func(ctx context.Context, collection string, q Query) ([]Document, error)
type fetchDocumentFunc func(ctx context.Context, collection, id string) (*Document, error)

// hub fans committed changes out to live subscribers. Each subscriber gets
// the full current result set of its query on subscribe and after every
// change to its collection; slow consumers are handled latest-wins, never by
// blocking the writer.
type hub struct {
	fetchCol fetchCollectionFunc
	fetchDoc fetchDocumentFunc

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	closed bool
}

type subscriber struct {
	collection string
	docID      string // non-empty for single-document watches
	query      Query

	colCh chan []Document
	docCh chan *Document

	stopped bool
}

func newHub(fetchCol fetchCollectionFunc, fetchDoc fetchDocumentFunc) *hub {
	return &hub{
		fetchCol: fetchCol,
		fetchDoc: fetchDoc,
		subs:     make(map[int]*subscriber),
	}
}

func (h *hub) watchCollection(ctx context.Context, collection string, q Query) (<-chan []Document, func()) {
	sub := &subscriber{
		collection: collection,
		query:      q,
		colCh:      make(chan []Document, 1),
	}
	stop := h.register(ctx, sub)

	// Initial delivery so subscribers render current state without waiting
	// for the first mutation.
	h.mu.Lock()
	h.deliver(ctx, sub)
	h.mu.Unlock()

	return sub.colCh, stop
}

func (h *hub) watchDocument(ctx context.Context, collection, id string) (<-chan *Document, func()) {
	sub := &subscriber{
		collection: collection,
		docID:      id,
		docCh:      make(chan *Document, 1),
	}
	stop := h.register(ctx, sub)

	h.mu.Lock()
	h.deliver(ctx, sub)
	h.mu.Unlock()

	return sub.docCh, stop
}

func (h *hub) register(ctx context.Context, sub *subscriber) func() {
	h.mu.Lock()
	if h.closed {
		// Subscribing to a closed hub hands back already-closed channels.
		sub.closeChannels()
		h.mu.Unlock()
		return func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				sub.closeChannels()
			}
			h.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		stop()
	}()

	return stop
}

// closeChannels runs under h.mu, like every send.
func (s *subscriber) closeChannels() {
	s.stopped = true
	if s.colCh != nil {
		close(s.colCh)
	}
	if s.docCh != nil {
		close(s.docCh)
	}
}

// notify pushes the current state of a collection to every matching
// subscriber. Called after the mutation's locks are released.
func (h *hub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if sub.collection == collection {
			h.deliver(context.Background(), sub)
		}
	}
}

// deliver queries and sends the subscriber's current view. Caller holds h.mu,
// which also guarantees no send races a channel close.
func (h *hub) deliver(ctx context.Context, sub *subscriber) {
	if sub.stopped {
		return
	}
	if sub.docCh != nil {
		doc, err := h.fetchDoc(ctx, sub.collection, sub.docID)
		if err != nil && err != ErrNotFound {
			log.Printf("[StoreHub] Failed to fetch %s/%s: %v", sub.collection, sub.docID, err)
			return
		}
		sendLatest(sub.docCh, doc)
		return
	}

	docs, err := h.fetchCol(ctx, sub.collection, sub.query)
	if err != nil {
		log.Printf("[StoreHub] Failed to fetch collection %s: %v", sub.collection, err)
		return
	}
	sendLatest(sub.colCh, docs)
}

// sendLatest replaces any undelivered value with the newest one. Subscribers
// always see the latest state; intermediate states may be skipped.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.closeChannels()
	}
}
