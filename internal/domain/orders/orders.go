package orders

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/listing"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

var (
	ErrNotImplemented = errors.New("orders repository: not implemented")
	ErrNotFound       = errors.New("order not found")
	ErrNoProducts     = errors.New("at least one product must be selected")
)

// Order is a customer purchase of one or more products.
type Order struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	TotalAmount int64     `json:"total_amount"` // store in cents
	OrderDate   time.Time `json:"order_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Items       []Item    `json:"items"`
}

// Item is a product line within an order. UnitPrice is the product price when ordered.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// ListFilter narrows order listings. Nil bounds, zero times and empty fields
// match everything; bounds are inclusive. CustomerName matches part of the
// ordering customer's name, case-insensitively. ProductID keeps orders with at
// least one line for that product.
type ListFilter struct {
	TotalMin     *int64
	TotalMax     *int64
	DateFrom     time.Time
	DateTo       time.Time
	CustomerName string
	ProductID    string
	Sort         listing.Order
}

// SortFields are the fields an order listing can be ordered by.
var SortFields = []string{"order_date", "total_amount", "created_at"}

var defaultSort = listing.Order{Field: "order_date", Desc: true}

// Ordering returns the requested sort, or newest order date first when none is set.
func (f ListFilter) Ordering() listing.Order {
	return listing.Resolve(f.Sort, defaultSort, SortFields...)
}

// Matches reports whether o, placed by a customer named customerName, satisfies the filter.
func (f ListFilter) Matches(o Order, customerName string) bool {
	switch {
	case f.TotalMin != nil && o.TotalAmount < *f.TotalMin:
		return false
	case f.TotalMax != nil && o.TotalAmount > *f.TotalMax:
		return false
	case !f.DateFrom.IsZero() && o.OrderDate.Before(f.DateFrom):
		return false
	case !f.DateTo.IsZero() && o.OrderDate.After(f.DateTo):
		return false
	case f.CustomerName != "" && !strings.Contains(strings.ToLower(customerName), strings.ToLower(f.CustomerName)):
		return false
	case f.ProductID != "" && !o.HasProduct(f.ProductID):
		return false
	}
	return true
}

// HasProduct reports whether any line of o is for productID.
func (o Order) HasProduct(productID string) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Compare orders a and b by o, breaking ties by ID.
func Compare(a, b Order, o listing.Order) int {
	var c int
	switch o.Field {
	case "total_amount":
		c = cmp.Compare(a.TotalAmount, b.TotalAmount)
	case "created_at":
		c = a.CreatedAt.Compare(b.CreatedAt)
	default:
		c = a.OrderDate.Compare(b.OrderDate)
	}
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	return o.Apply(c)
}

// Repository abstracts order persistence.
type Repository interface {
	FindByID(ctx context.Context, id string) (Order, error)
	Save(ctx context.Context, order Order) (Order, error)
	ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]Order, error)
	// ListSince returns orders dated on or after since, newest first.
	ListSince(ctx context.Context, since time.Time) ([]Order, error)
	// List returns matching orders in the filter's order (newest first by default).
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Order, error)
	Count(ctx context.Context) (int, error)
}

// NullRepository returns ErrNotImplemented for all operations.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (Order, error) {
	return Order{}, ErrNotImplemented
}

func (NullRepository) Save(context.Context, Order) (Order, error) {
	return Order{}, ErrNotImplemented
}

func (NullRepository) ListByCustomer(context.Context, string, int, int) ([]Order, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) ListSince(context.Context, time.Time) ([]Order, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) List(context.Context, ListFilter, int, int) ([]Order, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) Count(context.Context) (int, error) {
	return 0, ErrNotImplemented
}

// Service provides business logic around orders.
type Service interface {
	Get(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, input CreateInput) (Order, error)
	ListForCustomer(ctx context.Context, customerID string, offset, limit int) ([]Order, error)
	ListSince(ctx context.Context, since time.Time) ([]Order, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Order, error)
	Count(ctx context.Context) (int, error)
}

// CreateInput is used to place new orders.
type CreateInput struct {
	CustomerID string            `json:"customer_id"`
	Items      []CreateOrderItem `json:"items"`
	OrderDate  *time.Time        `json:"order_date,omitempty"`
}

// CreateOrderItem selects a product. A non-positive quantity means one.
type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// NewService builds an order service. Customer and product repositories are used to
// validate references and price the order.
func NewService(repo Repository, customerRepo customers.Repository, productRepo products.Repository) Service {
	return &service{repo: repo, customers: customerRepo, products: productRepo}
}

type service struct {
	repo      Repository
	customers customers.Repository
	products  products.Repository
}

func (s *service) Get(ctx context.Context, id string) (Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input CreateInput) (Order, error) {
	if _, err := s.customers.FindByID(ctx, input.CustomerID); err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return Order{}, fmt.Errorf("invalid customer id %q: %w", input.CustomerID, err)
		}
		return Order{}, err
	}
	if len(input.Items) == 0 {
		return Order{}, ErrNoProducts
	}

	order := Order{CustomerID: input.CustomerID}
	for _, item := range input.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, products.ErrNotFound) {
				return Order{}, fmt.Errorf("invalid product id %q: %w", item.ProductID, err)
			}
			return Order{}, err
		}

		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		order.Items = append(order.Items, Item{
			ProductID: product.ID,
			Quantity:  qty,
			UnitPrice: product.Price,
		})
		order.TotalAmount += int64(qty) * product.Price
	}

	if input.OrderDate != nil && !input.OrderDate.IsZero() {
		order.OrderDate = input.OrderDate.UTC()
	} else {
		order.OrderDate = time.Now().UTC()
	}

	return s.repo.Save(ctx, order)
}

func (s *service) ListForCustomer(ctx context.Context, customerID string, offset, limit int) ([]Order, error) {
	return s.repo.ListByCustomer(ctx, customerID, offset, limit)
}

func (s *service) ListSince(ctx context.Context, since time.Time) ([]Order, error) {
	return s.repo.ListSince(ctx, since)
}

func (s *service) List(ctx context.Context, filter ListFilter, offset, limit int) ([]Order, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
