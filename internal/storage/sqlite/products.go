package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

// ProductRepository implements products.Repository with gorm.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository builds a repository on db.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (products.Product, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (products.Product, error) {
	return r.first(ctx, "LOWER(name) = LOWER(?)", name)
}

func (r *ProductRepository) first(ctx context.Context, query string, arg any) (products.Product, error) {
	var m productModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return products.Product{}, products.ErrNotFound
	}
	if err != nil {
		return products.Product{}, fmt.Errorf("find product: %w", err)
	}
	return m.toDomain(), nil
}

func (r *ProductRepository) Save(ctx context.Context, product products.Product) (products.Product, error) {
	db := r.db.WithContext(ctx)
	now := time.Now().UTC()

	isNew := product.ID == ""
	if isNew {
		product.ID = uuid.NewString()
		product.CreatedAt = now
	} else if product.CreatedAt.IsZero() {
		var existing productModel
		err := db.Select("created_at").Where("id = ?", product.ID).First(&existing).Error
		switch {
		case err == nil:
			product.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			product.CreatedAt = now
		default:
			return products.Product{}, fmt.Errorf("load product: %w", err)
		}
	}
	product.UpdatedAt = now

	m := productModel{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	write := db.Save
	if isNew {
		write = db.Create
	}
	if err := write(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return products.Product{}, products.ErrNameExists
		}
		return products.Product{}, fmt.Errorf("save product: %w", err)
	}
	return m.toDomain(), nil
}

// List returns matching products in the filter's order (by name by default).
func (r *ProductRepository) List(ctx context.Context, filter products.ListFilter, offset, limit int) ([]products.Product, error) {
	q := r.db.WithContext(ctx).Model(&productModel{})
	if filter.NameContains != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.NameContains))+"%")
	}
	if filter.PriceMin != nil {
		q = q.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		q = q.Where("price <= ?", *filter.PriceMax)
	}
	if filter.StockMin != nil {
		q = q.Where("stock >= ?", *filter.StockMin)
	}
	if filter.StockMax != nil {
		q = q.Where("stock <= ?", *filter.StockMax)
	}
	if filter.LowStock {
		q = q.Where("stock < ?", products.LowStockThreshold)
	}

	var models []productModel
	q = paginate(q.Order(filter.Ordering().SQL()).Order("id"), offset, limit)
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return productsToDomain(models), nil
}

// RestockLow raises every low-stock product inside one transaction.
func (r *ProductRepository) RestockLow(ctx context.Context, amount int) ([]products.Product, error) {
	var models []productModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&productModel{}).Where("stock < ?", products.LowStockThreshold).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("find low-stock products: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		err := tx.Model(&productModel{}).Where("id IN ?", ids).Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", amount),
			"updated_at": time.Now().UTC(),
		}).Error
		if err != nil {
			return fmt.Errorf("restock products: %w", err)
		}
		return tx.Where("id IN ?", ids).Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	return productsToDomain(models), nil
}

func productsToDomain(models []productModel) []products.Product {
	out := make([]products.Product, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&productModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return int(n), nil
}
