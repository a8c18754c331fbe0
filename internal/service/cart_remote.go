package service

import (
	"context"
	"fmt"
	"log"

	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/store"
)

// RemoteCartService persists cart lines per identity in the document store.
// The line's document id is the product id, which is what enforces at most
// one line per (owner, product): adds merge quantities instead of appending.
type RemoteCartService struct {
	store store.Store
}

// NewRemoteCartService creates the remote cart variant.
func NewRemoteCartService(st store.Store) *RemoteCartService {
	return &RemoteCartService{store: st}
}

// Variant names the active persistence variant.
func (s *RemoteCartService) Variant() string { return CartVariantRemote }

func cartCollection(ownerUID string) string {
	return "carts/" + ownerUID
}

// Add merges a line inside an atomic transaction: read the existing line for
// the product, write back quantity+1 (missing line counts as zero). N
// concurrent adds for the same product therefore end at exactly quantity N.
func (s *RemoteCartService) Add(ctx context.Context, ownerUID, productID, name string, price float64, img string) error {
	col := cartCollection(ownerUID)

	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		quantity := 0
		if doc, err := tx.Get(col, productID); err == nil {
			var existing model.CartLine
			if err := doc.Decode(&existing); err != nil {
				return fmt.Errorf("failed to decode cart line: %w", err)
			}
			quantity = existing.Quantity
		} else if err != store.ErrNotFound {
			return err
		}

		return tx.Set(col, productID, model.CartLine{
			Name:     name,
			Price:    price,
			Img:      img,
			Quantity: quantity + 1,
		})
	})
	if err != nil {
		return fmt.Errorf("cart add transaction failed: %w", err)
	}
	return nil
}

// Remove deletes the line document outright (no decrement).
func (s *RemoteCartService) Remove(ctx context.Context, ownerUID, key string) error {
	return s.store.Delete(ctx, cartCollection(ownerUID), key)
}

func cartLinesFromDocuments(docs []store.Document) ([]model.CartLine, error) {
	lines := make([]model.CartLine, 0, len(docs))
	for _, doc := range docs {
		var line model.CartLine
		if err := doc.Decode(&line); err != nil {
			return nil, fmt.Errorf("failed to decode cart line %s: %w", doc.ID, err)
		}
		line.ID = doc.ID
		lines = append(lines, line)
	}
	return lines, nil
}

// List returns the cart lines, oldest-added first.
func (s *RemoteCartService) List(ctx context.Context, ownerUID string) ([]model.CartLine, error) {
	docs, err := s.store.List(ctx, cartCollection(ownerUID))
	if err != nil {
		return nil, err
	}
	return cartLinesFromDocuments(docs)
}

// Summary returns the cart's count and total.
func (s *RemoteCartService) Summary(ctx context.Context, ownerUID string) (model.CartSummary, error) {
	lines, err := s.List(ctx, ownerUID)
	if err != nil {
		return model.CartSummary{}, err
	}
	return model.Summarize(lines), nil
}

// Watch subscribes to the owner's cart; any remote change, including from
// another open tab, is delivered without manual refresh.
func (s *RemoteCartService) Watch(ctx context.Context, ownerUID string) (<-chan []model.CartLine, func(), error) {
	docs, stop := s.store.Watch(ctx, cartCollection(ownerUID))
	out := make(chan []model.CartLine, 1)

	go func() {
		defer close(out)
		for batch := range docs {
			lines, err := cartLinesFromDocuments(batch)
			if err != nil {
				log.Printf("[RemoteCartService] Dropping bad snapshot: %v", err)
				continue
			}
			out <- lines
		}
	}()

	return out, stop, nil
}

// Ensure RemoteCartService implements CartService
var _ CartService = (*RemoteCartService)(nil)
