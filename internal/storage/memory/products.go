package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/listing"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

// ProductRepository is an in-memory implementation of products.Repository.
type ProductRepository struct {
	store *Store
}

// NewProductRepository creates an in-memory product repo backed by store.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (products.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.products[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return p, nil
}

func (r *ProductRepository) FindByName(_ context.Context, name string) (products.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.products {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return products.Product{}, products.ErrNotFound
}

func (r *ProductRepository) Save(_ context.Context, product products.Product) (products.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if product.ID == "" {
		product.ID = newID()
		product.CreatedAt = now
	} else if existing, ok := r.store.products[product.ID]; ok && product.CreatedAt.IsZero() {
		product.CreatedAt = existing.CreatedAt
	}
	product.UpdatedAt = now
	r.store.products[product.ID] = product
	return product, nil
}

// List returns matching products in the filter's order (by name by default).
func (r *ProductRepository) List(_ context.Context, filter products.ListFilter, offset, limit int) ([]products.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	list := make([]products.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		if filter.Matches(p) {
			list = append(list, p)
		}
	}
	order := filter.Ordering()
	slices.SortFunc(list, func(a, b products.Product) int {
		return products.Compare(a, b, order)
	})

	return paginate(list, offset, limit), nil
}

// RestockLow raises the stock of every low-stock product under the store's write lock.
func (r *ProductRepository) RestockLow(_ context.Context, amount int) ([]products.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	updated := []products.Product{}
	for id, p := range r.store.products {
		if !p.LowStock() {
			continue
		}
		p.Stock += amount
		p.UpdatedAt = now
		r.store.products[id] = p
		updated = append(updated, p)
	}
	slices.SortFunc(updated, func(a, b products.Product) int {
		return products.Compare(a, b, listing.Order{Field: "name"})
	})
	return updated, nil
}

func (r *ProductRepository) Count(context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.products), nil
}
