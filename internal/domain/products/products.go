package products

import (
	"cmp"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/listing"
)

var (
	ErrNotImplemented = errors.New("products repository: not implemented")
	ErrNotFound       = errors.New("product not found")
	ErrNameExists     = errors.New("product name already exists")
	ErrInvalidPrice   = errors.New("price must be greater than 0")
	ErrInvalidStock   = errors.New("stock cannot be negative")
	ErrNameRequired   = errors.New("name is required")
	ErrInvalidRestock = errors.New("restock amount must be greater than 0")
)

// LowStockThreshold is the stock level under which a product needs restocking.
const LowStockThreshold = 10

// DefaultRestockAmount is added to each low-stock product when no amount is given.
const DefaultRestockAmount = 10

// Product is an item customers can order. Price is stored in cents.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LowStock reports whether the product is under LowStockThreshold.
func (p Product) LowStock() bool {
	return p.Stock < LowStockThreshold
}

// ListFilter narrows product listings. Nil bounds and empty fields match everything.
// Bounds are inclusive; LowStock keeps only products under LowStockThreshold.
type ListFilter struct {
	NameContains string
	PriceMin     *int64
	PriceMax     *int64
	StockMin     *int
	StockMax     *int
	LowStock     bool
	Sort         listing.Order
}

// SortFields are the fields a product listing can be ordered by.
var SortFields = []string{"name", "price", "stock", "created_at"}

var defaultSort = listing.Order{Field: "name"}

// Ordering returns the requested sort, or by name when none is set.
func (f ListFilter) Ordering() listing.Order {
	return listing.Resolve(f.Sort, defaultSort, SortFields...)
}

// Matches reports whether p satisfies the filter.
func (f ListFilter) Matches(p Product) bool {
	switch {
	case f.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)):
		return false
	case f.PriceMin != nil && p.Price < *f.PriceMin:
		return false
	case f.PriceMax != nil && p.Price > *f.PriceMax:
		return false
	case f.StockMin != nil && p.Stock < *f.StockMin:
		return false
	case f.StockMax != nil && p.Stock > *f.StockMax:
		return false
	case f.LowStock && !p.LowStock():
		return false
	}
	return true
}

// Compare orders a and b by o, breaking ties by ID.
func Compare(a, b Product, o listing.Order) int {
	var c int
	switch o.Field {
	case "price":
		c = cmp.Compare(a.Price, b.Price)
	case "stock":
		c = cmp.Compare(a.Stock, b.Stock)
	case "created_at":
		c = a.CreatedAt.Compare(b.CreatedAt)
	default:
		c = strings.Compare(a.Name, b.Name)
	}
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	return o.Apply(c)
}

// Repository abstracts persistence for products.
type Repository interface {
	FindByID(ctx context.Context, id string) (Product, error)
	FindByName(ctx context.Context, name string) (Product, error)
	Save(ctx context.Context, product Product) (Product, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Product, error)
	Count(ctx context.Context) (int, error)
	// RestockLow adds amount to the stock of every product under LowStockThreshold
	// in one atomic step and returns the updated products ordered by name.
	RestockLow(ctx context.Context, amount int) ([]Product, error)
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (Product, error) {
	return Product{}, ErrNotImplemented
}

func (NullRepository) FindByName(context.Context, string) (Product, error) {
	return Product{}, ErrNotImplemented
}

func (NullRepository) Save(context.Context, Product) (Product, error) {
	return Product{}, ErrNotImplemented
}

func (NullRepository) List(context.Context, ListFilter, int, int) ([]Product, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) Count(context.Context) (int, error) {
	return 0, ErrNotImplemented
}

func (NullRepository) RestockLow(context.Context, int) ([]Product, error) {
	return nil, ErrNotImplemented
}

// Service defines operations for product management.
type Service interface {
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, input CreateInput) (Product, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Product, error)
	Count(ctx context.Context) (int, error)
	RestockLow(ctx context.Context, amount int) ([]Product, error)
}

// CreateInput is used to create a new product. A nil Stock means zero.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Stock       *int   `json:"stock,omitempty"`
}

// NewService builds a product service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func (s *service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input CreateInput) (Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Product{}, ErrNameRequired
	}
	if input.Price <= 0 {
		return Product{}, ErrInvalidPrice
	}
	stock := 0
	if input.Stock != nil {
		stock = *input.Stock
	}
	if stock < 0 {
		return Product{}, ErrInvalidStock
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return Product{}, ErrNameExists
	} else if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotImplemented) {
		return Product{}, err
	}

	return s.repo.Save(ctx, Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       stock,
	})
}

func (s *service) List(ctx context.Context, filter ListFilter, offset, limit int) ([]Product, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *service) RestockLow(ctx context.Context, amount int) ([]Product, error) {
	if amount <= 0 {
		return nil, ErrInvalidRestock
	}
	return s.repo.RestockLow(ctx, amount)
}
