package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/orders"
)

// OrderRepository persists orders and their items.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository constructs a repository using a pooled DB handle.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, customer_id, total_amount, order_date, created_at, updated_at`

func scanOrder(row rowScanner) (orders.Order, error) {
	var o orders.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// FindByID retrieves an order and its items.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (orders.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orders.Order{}, orders.ErrNotFound
		}
		return orders.Order{}, fmt.Errorf("find order: %w", err)
	}

	items, err := r.fetchItems(ctx, o.ID)
	if err != nil {
		return orders.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepository) fetchItems(ctx context.Context, orderID string) ([]orders.Item, error) {
	const query = `
        SELECT product_id, quantity, unit_price
          FROM order_items
         WHERE order_id = $1
         ORDER BY sort_order
    `

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []orders.Item
	for rows.Next() {
		var item orders.Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order items rows err: %w", err)
	}
	return items, nil
}

// Save inserts or updates an order with its items in one transaction.
func (r *OrderRepository) Save(ctx context.Context, o orders.Order) (orders.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return orders.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	now := time.Now().UTC()
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}

	if o.ID == "" {
		const insert = `
            INSERT INTO orders (customer_id, total_amount, order_date, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id
        `
		if err := tx.QueryRowContext(ctx, insert, o.CustomerID, o.TotalAmount, o.OrderDate, now, now).Scan(&o.ID); err != nil {
			tx.Rollback()
			return orders.Order{}, fmt.Errorf("insert order: %w", err)
		}
		o.CreatedAt = now
		o.UpdatedAt = now
	} else {
		const update = `
            UPDATE orders
               SET customer_id = $2,
                   total_amount = $3,
                   order_date = $4,
                   updated_at = $5
             WHERE id = $1
            RETURNING created_at
        `
		var created time.Time
		if err := tx.QueryRowContext(ctx, update, o.ID, o.CustomerID, o.TotalAmount, o.OrderDate, now).Scan(&created); err != nil {
			tx.Rollback()
			if errors.Is(err, sql.ErrNoRows) {
				return orders.Order{}, orders.ErrNotFound
			}
			return orders.Order{}, fmt.Errorf("update order: %w", err)
		}
		o.CreatedAt = created
		o.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
			tx.Rollback()
			return orders.Order{}, fmt.Errorf("delete order items: %w", err)
		}
	}

	const insertItem = `
        INSERT INTO order_items (order_id, product_id, quantity, unit_price, sort_order)
        VALUES ($1,$2,$3,$4,$5)
    `
	for idx, item := range o.Items {
		if _, err := tx.ExecContext(ctx, insertItem, o.ID, item.ProductID, item.Quantity, item.UnitPrice, idx); err != nil {
			tx.Rollback()
			return orders.Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return orders.Order{}, fmt.Errorf("commit order save: %w", err)
	}
	return o, nil
}

// ListByCustomer returns paginated orders for a customer, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]orders.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY order_date DESC OFFSET $2`
	args := []any{customerID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

// ListSince returns orders dated on or after since, newest first.
func (r *OrderRepository) ListSince(ctx context.Context, since time.Time) ([]orders.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_date >= $1 ORDER BY order_date DESC`, since)
}

// List returns matching orders in the filter's order (newest first by default).
func (r *OrderRepository) List(ctx context.Context, filter orders.ListFilter, offset, limit int) ([]orders.Order, error) {
	var cond conditions
	if filter.TotalMin != nil {
		cond.add("total_amount >= $%d", *filter.TotalMin)
	}
	if filter.TotalMax != nil {
		cond.add("total_amount <= $%d", *filter.TotalMax)
	}
	if !filter.DateFrom.IsZero() {
		cond.add("order_date >= $%d", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		cond.add("order_date <= $%d", filter.DateTo)
	}
	if filter.CustomerName != "" {
		cond.add("customer_id IN (SELECT id FROM customers WHERE name ILIKE $%d)", "%"+filter.CustomerName+"%")
	}
	if filter.ProductID != "" {
		cond.add("EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = orders.id AND i.product_id = $%d)", filter.ProductID)
	}

	query := cond.query(`SELECT `+orderColumns+` FROM orders`, filter.Ordering(), offset, limit)
	return r.query(ctx, query, cond.args...)
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...any) ([]orders.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	result := []orders.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("rows err: %w", err)
	}
	rows.Close()

	// Items are fetched only after the outer rows are closed.
	for i := range result {
		items, err := r.fetchItems(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}
