package jobs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ezmobilemechanic/crm/internal/domain"
	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
	"github.com/ezmobilemechanic/crm/internal/storage/memory"
)

var fixedNow = time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newContainer() domain.Container {
	store := memory.NewStore()
	return domain.New(domain.Options{
		CustomerRepo: memory.NewCustomerRepository(store),
		ProductRepo:  memory.NewProductRepository(store),
		OrderRepo:    memory.NewOrderRepository(store),
	})
}

func addCustomer(t *testing.T, c domain.Container, name, email string) customers.Customer {
	t.Helper()
	cust, err := c.Customers.Create(context.Background(), customers.CreateInput{Name: name, Email: email})
	require.NoError(t, err)
	return cust
}

func addProduct(t *testing.T, c domain.Container, name string, price int64, stock int) products.Product {
	t.Helper()
	p, err := c.Products.Create(context.Background(), products.CreateInput{Name: name, Price: price, Stock: &stock})
	require.NoError(t, err)
	return p
}

func addOrder(t *testing.T, c domain.Container, customerID, productID string, qty int, at time.Time) orders.Order {
	t.Helper()
	o, err := c.Orders.Create(context.Background(), orders.CreateInput{
		CustomerID: customerID,
		Items:      []orders.CreateOrderItem{{ProductID: productID, Quantity: qty}},
		OrderDate:  &at,
	})
	require.NoError(t, err)
	return o
}

func logPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
