package service

import (
	"context"
	"fmt"
	"log"

	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/store"
)

// ProductsCollection is the catalog's store collection.
const ProductsCollection = "products"

// placeholderProducts is the fixed set seeded into an empty catalog.
var placeholderProducts = []model.ProductInput{
	{
		Name:  "Dimensional Drift Tee",
		Price: 48.00,
		Img:   "https://placehold.co/600x800/1a1a1a/f87171?text=Drift+Tee",
		Desc:  "A comfortable tee that seems to phase in and out of reality.",
	},
	{
		Name:  "9-Lives Hoodie",
		Price: 50.00,
		Img:   "https://placehold.co/600x800/1a1a1a/60a5fa?text=Glitch+Hoodie",
		Desc:  "Heavyweight hoodie with embroidered glitch patterns.",
	},
	{
		Name:  "Chrono-Cargo Pants",
		Price: 130.00,
		Img:   "https://placehold.co/600x800/1a1a1a/34d399?text=Chrono+Pants",
		Desc:  "Durable cargo pants with enough pockets for your timeline.",
	},
}

// CatalogService maintains the list of purchasable products: a live grid for
// everyone, create/update/delete for admins, and first-run seeding.
type CatalogService struct {
	store store.Store
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{store: st}
}

func productFromDocument(doc store.Document) (model.Product, error) {
	var p model.Product
	if err := doc.Decode(&p); err != nil {
		return model.Product{}, fmt.Errorf("failed to decode product %s: %w", doc.ID, err)
	}
	p.ID = doc.ID
	p.CreatedAt = doc.CreatedAt
	return p, nil
}

func productsFromDocuments(docs []store.Document) ([]model.Product, error) {
	products := make([]model.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := productFromDocument(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// List returns all products, oldest-first.
func (s *CatalogService) List(ctx context.Context) ([]model.Product, error) {
	docs, err := s.store.List(ctx, ProductsCollection)
	if err != nil {
		return nil, err
	}
	return productsFromDocuments(docs)
}

// Watch subscribes to the product grid. The channel delivers the full
// catalog on every change.
func (s *CatalogService) Watch(ctx context.Context) (<-chan []model.Product, func()) {
	docs, stop := s.store.Watch(ctx, ProductsCollection)
	out := make(chan []model.Product, 1)

	go func() {
		defer close(out)
		for batch := range docs {
			products, err := productsFromDocuments(batch)
			if err != nil {
				log.Printf("[CatalogService] Dropping bad snapshot: %v", err)
				continue
			}
			out <- products
		}
	}()

	return out, stop
}

// Create adds a product. Privileged. The returned product carries the
// store-assigned timestamp, so it matches what List reports afterwards.
func (s *CatalogService) Create(ctx context.Context, input model.ProductInput) (model.Product, error) {
	id, err := s.store.Add(ctx, ProductsCollection, input)
	if err != nil {
		return model.Product{}, err
	}
	doc, err := s.store.Get(ctx, ProductsCollection, id)
	if err != nil {
		return model.Product{}, err
	}
	return productFromDocument(*doc)
}

// Update merges new fields into an existing product. Privileged.
func (s *CatalogService) Update(ctx context.Context, id string, input model.ProductInput) error {
	return s.store.Update(ctx, ProductsCollection, id, map[string]interface{}{
		"name":  input.Name,
		"price": input.Price,
		"img":   input.Img,
		"desc":  input.Desc,
	})
}

// Delete removes a product. Privileged.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, ProductsCollection, id)
}

// Seed inserts the placeholder catalog as one atomic batch when the
// collection is empty; a non-empty catalog makes it a no-op. Best-effort
// convenience: concurrent first loads cannot half-seed because the batch
// commits as a unit, but two racing seeds are not strictly prevented.
func (s *CatalogService) Seed(ctx context.Context) (bool, error) {
	existing, err := s.store.List(ctx, ProductsCollection, store.WithLimit(1))
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	err = s.store.RunBatch(ctx, func(b store.Batch) error {
		for _, p := range placeholderProducts {
			b.Add(ProductsCollection, p)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	log.Printf("[CatalogService] Seeded %d placeholder products", len(placeholderProducts))
	return true, nil
}
