package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"ninelives-store-api/internal/cache"
	"ninelives-store-api/internal/model"
)

// LocalCartService persists cart lines as an ordered list in client-local
// storage (the cache), keyed by session. Adds append unconditionally, so the
// same product can appear on several lines; removal is by position index.
// There is no live cross-tab sync: this is the anonymous session cart, kept
// deliberately simpler than the logged-in remote variant.
type LocalCartService struct {
	storage cache.Cache
	mu      sync.Mutex
}

// NewLocalCartService creates the local cart variant.
func NewLocalCartService(storage cache.Cache) *LocalCartService {
	return &LocalCartService{storage: storage}
}

// Variant names the active persistence variant.
func (s *LocalCartService) Variant() string { return CartVariantLocal }

func localCartKey(ownerUID string) string {
	return "cart:" + ownerUID
}

func (s *LocalCartService) load(ctx context.Context, ownerUID string) ([]model.CartLine, error) {
	data, err := s.storage.Get(ctx, localCartKey(ownerUID))
	if err == cache.ErrCacheMiss {
		return []model.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load local cart: %w", err)
	}

	var lines []model.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to parse local cart: %w", err)
	}
	return lines, nil
}

func (s *LocalCartService) save(ctx context.Context, ownerUID string, lines []model.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	// TTL 0: local storage does not expire.
	return s.storage.Set(ctx, localCartKey(ownerUID), data, 0)
}

// Add appends a new line unconditionally; duplicates are permitted, one line
// per add action even for the same product.
func (s *LocalCartService) Add(ctx context.Context, ownerUID, productID, name string, price float64, img string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx, ownerUID)
	if err != nil {
		return err
	}

	lines = append(lines, model.CartLine{
		ID:       productID,
		Name:     name,
		Price:    price,
		Img:      img,
		Quantity: 1,
	})
	return s.save(ctx, ownerUID, lines)
}

// Remove deletes the line at the given position index.
func (s *LocalCartService) Remove(ctx context.Context, ownerUID, key string) error {
	index, err := strconv.Atoi(key)
	if err != nil {
		return ErrCartLineNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx, ownerUID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(lines) {
		return ErrCartLineNotFound
	}

	lines = append(lines[:index], lines[index+1:]...)
	return s.save(ctx, ownerUID, lines)
}

// List returns the cart lines in insertion order, each line's ID set to its
// position index so removal keys line up with rendering.
func (s *LocalCartService) List(ctx context.Context, ownerUID string) ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].ID = strconv.Itoa(i)
	}
	return lines, nil
}

// Summary returns the cart's count and total.
func (s *LocalCartService) Summary(ctx context.Context, ownerUID string) (model.CartSummary, error) {
	lines, err := s.List(ctx, ownerUID)
	if err != nil {
		return model.CartSummary{}, err
	}
	return model.Summarize(lines), nil
}

// Watch is unsupported for the local variant.
func (s *LocalCartService) Watch(ctx context.Context, ownerUID string) (<-chan []model.CartLine, func(), error) {
	return nil, nil, ErrWatchUnsupported
}

// Ensure LocalCartService implements CartService
var _ CartService = (*LocalCartService)(nil)
