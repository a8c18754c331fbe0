package service

import (
	"context"
	"testing"

	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/store"

	"github.com/stretchr/testify/require"
)

func TestSeedPopulatesEmptyCatalog(t *testing.T) {
	s := NewCatalogService(newTestStore(t))
	ctx := context.Background()

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	require.Equal(t, "Dimensional Drift Tee", products[0].Name)
	require.InDelta(t, 48.0, products[0].Price, 0.001)
}

func TestSeedIsNoopWhenCatalogNotEmpty(t *testing.T) {
	s := NewCatalogService(newTestStore(t))
	ctx := context.Background()

	_, err := s.Create(ctx, model.ProductInput{Name: "Solo Item", Price: 10})
	require.NoError(t, err)

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	require.False(t, seeded)

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
}

func TestSeedTwiceDoesNotDuplicate(t *testing.T) {
	s := NewCatalogService(newTestStore(t))
	ctx := context.Background()

	_, err := s.Seed(ctx)
	require.NoError(t, err)

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	require.False(t, seeded)

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
}

func TestCreateUpdateDeleteProduct(t *testing.T) {
	s := NewCatalogService(newTestStore(t))
	ctx := context.Background()

	p, err := s.Create(ctx, model.ProductInput{Name: "Void Beanie", Price: 25, Img: "x.png"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	require.NoError(t, s.Update(ctx, p.ID, model.ProductInput{Name: "Void Beanie v2", Price: 30, Img: "x.png"}))

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Void Beanie v2", products[0].Name)
	require.InDelta(t, 30.0, products[0].Price, 0.001)

	require.NoError(t, s.Delete(ctx, p.ID))

	products, err = s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestCreateReportsStoredTimestamp(t *testing.T) {
	s := NewCatalogService(newTestStore(t))
	ctx := context.Background()

	created, err := s.Create(ctx, model.ProductInput{Name: "Void Beanie", Price: 25, Img: "x.png"})
	require.NoError(t, err)

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.True(t, created.CreatedAt.Equal(products[0].CreatedAt))
}

func TestUpdateMissingProduct(t *testing.T) {
	s := NewCatalogService(newTestStore(t))

	err := s.Update(context.Background(), "nope", model.ProductInput{Name: "Ghost"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCatalogWatchDeliversFullGrid(t *testing.T) {
	s := NewCatalogService(newTestStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop := s.Watch(ctx)
	defer stop()

	initial := <-ch
	require.Empty(t, initial)

	_, err := s.Create(ctx, model.ProductInput{Name: "New Drop", Price: 60})
	require.NoError(t, err)

	update := <-ch
	require.Len(t, update, 1)
	require.Equal(t, "New Drop", update[0].Name)
}
