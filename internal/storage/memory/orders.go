package memory

import (
	"context"
	"slices"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/listing"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
)

// OrderRepository is an in-memory implementation of orders.Repository.
type OrderRepository struct {
	store *Store
}

// NewOrderRepository creates an in-memory order repo backed by store.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (orders.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	o, ok := r.store.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) Save(_ context.Context, order orders.Order) (orders.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if order.ID == "" {
		order.ID = newID()
		order.CreatedAt = now
	} else if existing, ok := r.store.orders[order.ID]; ok && order.CreatedAt.IsZero() {
		order.CreatedAt = existing.CreatedAt
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	order.UpdatedAt = now
	r.store.orders[order.ID] = cloneOrder(order)
	return order, nil
}

func (r *OrderRepository) ListByCustomer(_ context.Context, customerID string, offset, limit int) ([]orders.Order, error) {
	list := r.collect(newestFirst, func(o orders.Order) bool { return o.CustomerID == customerID })
	return paginate(list, offset, limit), nil
}

func (r *OrderRepository) ListSince(_ context.Context, since time.Time) ([]orders.Order, error) {
	return r.collect(newestFirst, func(o orders.Order) bool { return !o.OrderDate.Before(since) }), nil
}

func (r *OrderRepository) List(_ context.Context, filter orders.ListFilter, offset, limit int) ([]orders.Order, error) {
	list := r.collect(filter.Ordering(), func(o orders.Order) bool {
		// store.mu is held by collect.
		return filter.Matches(o, r.store.customers[o.CustomerID].Name)
	})
	return paginate(list, offset, limit), nil
}

func (r *OrderRepository) Count(context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.orders), nil
}

var newestFirst = listing.Order{Field: "order_date", Desc: true}

// collect returns matching orders sorted by order.
func (r *OrderRepository) collect(order listing.Order, match func(orders.Order) bool) []orders.Order {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	list := make([]orders.Order, 0)
	for _, o := range r.store.orders {
		if match(o) {
			list = append(list, cloneOrder(o))
		}
	}
	slices.SortFunc(list, func(a, b orders.Order) int {
		return orders.Compare(a, b, order)
	})
	return list
}

func cloneOrder(o orders.Order) orders.Order {
	if o.Items != nil {
		o.Items = append([]orders.Item(nil), o.Items...)
	}
	return o
}
