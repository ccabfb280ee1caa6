package orders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
	"github.com/ezmobilemechanic/crm/internal/storage/memory"
)

type env struct {
	orders   orders.Service
	customer customers.Customer
	laptop   products.Product
	mouse    products.Product
}

func setup(t *testing.T) env {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	custRepo := memory.NewCustomerRepository(store)
	prodRepo := memory.NewProductRepository(store)

	customer, err := custRepo.Save(ctx, customers.Customer{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("save customer: %v", err)
	}
	laptop, err := prodRepo.Save(ctx, products.Product{Name: "Laptop", Price: 99999, Stock: 10})
	if err != nil {
		t.Fatalf("save product: %v", err)
	}
	mouse, err := prodRepo.Save(ctx, products.Product{Name: "Mouse", Price: 2500, Stock: 50})
	if err != nil {
		t.Fatalf("save product: %v", err)
	}

	return env{
		orders:   orders.NewService(memory.NewOrderRepository(store), custRepo, prodRepo),
		customer: customer,
		laptop:   laptop,
		mouse:    mouse,
	}
}

func TestOrderServiceCreateTotals(t *testing.T) {
	e := setup(t)

	o, err := e.orders.Create(context.Background(), orders.CreateInput{
		CustomerID: e.customer.ID,
		Items: []orders.CreateOrderItem{
			{ProductID: e.laptop.ID, Quantity: 1},
			{ProductID: e.mouse.ID, Quantity: 2},
			{ProductID: e.mouse.ID},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	expected := int64(99999 + 2*2500 + 2500)
	if o.TotalAmount != expected {
		t.Fatalf("expected total %d, got %d", expected, o.TotalAmount)
	}
	if len(o.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(o.Items))
	}
	if o.Items[2].Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", o.Items[2].Quantity)
	}
	if o.OrderDate.IsZero() {
		t.Fatalf("expected order date to default to now")
	}
}

func TestOrderServiceCreateRejectsBadReferences(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.orders.Create(ctx, orders.CreateInput{CustomerID: "missing", Items: []orders.CreateOrderItem{{ProductID: e.laptop.ID}}})
	if !errors.Is(err, customers.ErrNotFound) {
		t.Fatalf("expected customers.ErrNotFound, got %v", err)
	}

	_, err = e.orders.Create(ctx, orders.CreateInput{CustomerID: e.customer.ID})
	if !errors.Is(err, orders.ErrNoProducts) {
		t.Fatalf("expected ErrNoProducts, got %v", err)
	}

	_, err = e.orders.Create(ctx, orders.CreateInput{CustomerID: e.customer.ID, Items: []orders.CreateOrderItem{{ProductID: "missing"}}})
	if !errors.Is(err, products.ErrNotFound) {
		t.Fatalf("expected products.ErrNotFound, got %v", err)
	}
}

func TestOrderServiceListSince(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, d := range []time.Time{now.AddDate(0, 0, -10), now.AddDate(0, 0, -3), now.Add(-time.Hour)} {
		d := d
		if _, err := e.orders.Create(ctx, orders.CreateInput{
			CustomerID: e.customer.ID,
			Items:      []orders.CreateOrderItem{{ProductID: e.mouse.ID}},
			OrderDate:  &d,
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	recent, err := e.orders.ListSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("list since failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent orders, got %d", len(recent))
	}
	if !recent[0].OrderDate.After(recent[1].OrderDate) {
		t.Fatalf("expected newest first")
	}

	mine, err := e.orders.ListForCustomer(ctx, e.customer.ID, 0, 2)
	if err != nil {
		t.Fatalf("list for customer failed: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(mine))
	}
}

func TestOrderServiceListFilteredByProduct(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	withLaptop, err := e.orders.Create(ctx, orders.CreateInput{
		CustomerID: e.customer.ID,
		Items:      []orders.CreateOrderItem{{ProductID: e.laptop.ID}, {ProductID: e.mouse.ID}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.orders.Create(ctx, orders.CreateInput{
		CustomerID: e.customer.ID,
		Items:      []orders.CreateOrderItem{{ProductID: e.mouse.ID}},
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	list, err := e.orders.List(ctx, orders.ListFilter{ProductID: e.laptop.ID}, 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != withLaptop.ID {
		t.Fatalf("expected only the laptop order, got %+v", list)
	}

	all, err := e.orders.List(ctx, orders.ListFilter{CustomerName: "ALI"}, 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders for Alice, got %d", len(all))
	}
}

func TestListFilterOrderingFallsBack(t *testing.T) {
	got := orders.ListFilter{}.Ordering()
	if got.Field != "order_date" || !got.Desc {
		t.Fatalf("expected order_date DESC by default, got %+v", got)
	}
}
