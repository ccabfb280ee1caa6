package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

// ProductRepository persists products.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository constructs a repository using a pooled DB handle.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, description, price, stock, created_at, updated_at`

func scanProduct(row rowScanner) (products.Product, error) {
	var p products.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (products.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, products.ErrNotFound
		}
		return products.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (products.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE lower(name) = lower($1)`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, products.ErrNotFound
		}
		return products.Product{}, fmt.Errorf("find product by name: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) Save(ctx context.Context, p products.Product) (products.Product, error) {
	now := time.Now().UTC()

	if p.ID == "" {
		const insert = `
            INSERT INTO products (name, description, price, stock, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING id
        `
		if err := r.db.QueryRowContext(ctx, insert, p.Name, p.Description, p.Price, p.Stock, now, now).Scan(&p.ID); err != nil {
			return products.Product{}, fmt.Errorf("insert product: %w", err)
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		return p, nil
	}

	const update = `
        UPDATE products
           SET name = $2,
               description = $3,
               price = $4,
               stock = $5,
               updated_at = $6
         WHERE id = $1
        RETURNING created_at
    `
	var created time.Time
	if err := r.db.QueryRowContext(ctx, update, p.ID, p.Name, p.Description, p.Price, p.Stock, now).Scan(&created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, products.ErrNotFound
		}
		return products.Product{}, fmt.Errorf("update product: %w", err)
	}
	p.CreatedAt = created
	p.UpdatedAt = now
	return p, nil
}

// List returns matching products in the filter's order (by name by default).
func (r *ProductRepository) List(ctx context.Context, filter products.ListFilter, offset, limit int) ([]products.Product, error) {
	var cond conditions
	if filter.NameContains != "" {
		cond.add("name ILIKE $%d", "%"+filter.NameContains+"%")
	}
	if filter.PriceMin != nil {
		cond.add("price >= $%d", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		cond.add("price <= $%d", *filter.PriceMax)
	}
	if filter.StockMin != nil {
		cond.add("stock >= $%d", *filter.StockMin)
	}
	if filter.StockMax != nil {
		cond.add("stock <= $%d", *filter.StockMax)
	}
	if filter.LowStock {
		cond.add("stock < $%d", products.LowStockThreshold)
	}

	query := cond.query(`SELECT `+productColumns+` FROM products`, filter.Ordering(), offset, limit)
	rows, err := r.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

// RestockLow raises every low-stock product in a single UPDATE.
func (r *ProductRepository) RestockLow(ctx context.Context, amount int) ([]products.Product, error) {
	const update = `
        UPDATE products
           SET stock = stock + $1,
               updated_at = $2
         WHERE stock < $3
        RETURNING ` + productColumns

	rows, err := r.db.QueryContext(ctx, update, amount, time.Now().UTC(), products.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("restock products: %w", err)
	}
	updated, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].Name < updated[j].Name })
	return updated, nil
}

func collectProducts(rows *sql.Rows) ([]products.Product, error) {
	defer rows.Close()

	result := []products.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
