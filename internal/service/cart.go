package service

import (
	"context"

	"ninelives-store-api/internal/model"
)

// Cart errors.
const (
	// ErrWatchUnsupported indicates the cart variant has no live
	// subscription (local carts are session-scoped by design).
	ErrWatchUnsupported ServiceError = "live cart subscription unsupported"

	// ErrCartLineNotFound indicates a removal targeted a missing line.
	ErrCartLineNotFound ServiceError = "cart line not found"
)

// Cart variant names, selected by configuration.
const (
	CartVariantRemote = "remote"
	CartVariantLocal  = "local"
)

// CartService maintains a user's selected products. Two variants exist:
//
//   - remote: one document per (owner, product) in the store, quantity merged
//     inside an atomic transaction, deleted outright on removal, live-synced
//     across tabs and devices;
//   - local: an ordered list in client-local storage, one line per add action
//     (duplicates allowed), removal by position index, no live sync.
//
// Pick one per deployment; the summary math is identical across variants.
type CartService interface {
	// Add appends or merges a line for the product. The name and price are
	// denormalized snapshots taken at add time.
	Add(ctx context.Context, ownerUID, productID, name string, price float64, img string) error

	// Remove deletes one line. The key is the product id (remote) or the
	// position index (local).
	Remove(ctx context.Context, ownerUID, key string) error

	// List returns the current cart lines.
	List(ctx context.Context, ownerUID string) ([]model.CartLine, error)

	// Summary returns the live badge state.
	Summary(ctx context.Context, ownerUID string) (model.CartSummary, error)

	// Watch subscribes to the cart. ErrWatchUnsupported for the local
	// variant.
	Watch(ctx context.Context, ownerUID string) (<-chan []model.CartLine, func(), error)

	// Variant names the active persistence variant.
	Variant() string
}
