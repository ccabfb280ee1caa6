package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
)

// CustomerRepository is an in-memory implementation of customers.Repository.
type CustomerRepository struct {
	store *Store
}

// NewCustomerRepository returns a repository backed by store.
func NewCustomerRepository(store *Store) *CustomerRepository {
	return &CustomerRepository{store: store}
}

// FindByID returns a customer by identifier.
func (r *CustomerRepository) FindByID(_ context.Context, id string) (customers.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.customers[id]
	if !ok {
		return customers.Customer{}, customers.ErrNotFound
	}
	return c, nil
}

// FindByEmail returns the customer owning email, compared case-insensitively.
func (r *CustomerRepository) FindByEmail(_ context.Context, email string) (customers.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.customers {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return customers.Customer{}, customers.ErrNotFound
}

// Save inserts or updates a customer record.
func (r *CustomerRepository) Save(_ context.Context, customer customers.Customer) (customers.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if customer.ID == "" {
		customer.ID = newID()
		customer.CreatedAt = now
	} else {
		existing, ok := r.store.customers[customer.ID]
		if ok {
			if customer.CreatedAt.IsZero() {
				customer.CreatedAt = existing.CreatedAt
			}
		} else if customer.CreatedAt.IsZero() {
			customer.CreatedAt = now
		}
	}
	customer.UpdatedAt = now
	r.store.customers[customer.ID] = customer
	return customer, nil
}

// List returns matching customers in the filter's order (newest first by default).
func (r *CustomerRepository) List(_ context.Context, filter customers.ListFilter, offset, limit int) ([]customers.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	list := make([]customers.Customer, 0, len(r.store.customers))
	for _, c := range r.store.customers {
		if filter.Matches(c) {
			list = append(list, c)
		}
	}

	order := filter.Ordering()
	slices.SortFunc(list, func(a, b customers.Customer) int {
		return customers.Compare(a, b, order)
	})

	return paginate(list, offset, limit), nil
}

// Count returns the number of stored customers.
func (r *CustomerRepository) Count(context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.customers), nil
}

// DeleteInactive removes customers whose latest order is older than cutoff or who
// never ordered, cascading to their orders.
func (r *CustomerRepository) DeleteInactive(_ context.Context, cutoff time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	active := make(map[string]bool)
	for _, o := range r.store.orders {
		if !o.OrderDate.Before(cutoff) {
			active[o.CustomerID] = true
		}
	}

	deleted := 0
	for id := range r.store.customers {
		if active[id] {
			continue
		}
		delete(r.store.customers, id)
		deleted++
	}

	for id, o := range r.store.orders {
		if _, ok := r.store.customers[o.CustomerID]; !ok {
			delete(r.store.orders, id)
		}
	}

	return deleted, nil
}
