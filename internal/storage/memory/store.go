package memory

import (
	"sync"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

// Store holds all in-memory records behind one lock so that a customer
// delete can cascade to that customer's orders atomically.
type Store struct {
	mu        sync.RWMutex
	customers map[string]customers.Customer
	products  map[string]products.Product
	orders    map[string]orders.Order
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]customers.Customer),
		products:  make(map[string]products.Product),
		orders:    make(map[string]orders.Order),
	}
}

func paginate[T any](list []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}
