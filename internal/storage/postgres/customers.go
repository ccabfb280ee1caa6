package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
)

// CustomerRepository persists customers using a *sql.DB handle.
type CustomerRepository struct {
	db *sql.DB
}

// NewCustomerRepository returns a repository backed by a pooled DB connection.
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, name, email, phone, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (customers.Customer, error) {
	var c customers.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// FindByID fetches a customer by primary key.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (customers.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customers.Customer{}, customers.ErrNotFound
		}
		return customers.Customer{}, fmt.Errorf("find customer: %w", err)
	}
	return c, nil
}

// FindByEmail fetches a customer by case-insensitive email.
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (customers.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = lower($1)`

	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customers.Customer{}, customers.ErrNotFound
		}
		return customers.Customer{}, fmt.Errorf("find customer by email: %w", err)
	}
	return c, nil
}

// Save inserts or updates a customer record.
func (r *CustomerRepository) Save(ctx context.Context, customer customers.Customer) (customers.Customer, error) {
	now := time.Now().UTC()

	if customer.ID == "" {
		const insert = `
            INSERT INTO customers (name, email, phone, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id
        `
		if err := r.db.QueryRowContext(ctx, insert,
			customer.Name,
			customer.Email,
			customer.Phone,
			now,
			now,
		).Scan(&customer.ID); err != nil {
			return customers.Customer{}, fmt.Errorf("insert customer: %w", err)
		}
		customer.CreatedAt = now
		customer.UpdatedAt = now
		return customer, nil
	}

	const update = `
        UPDATE customers
           SET name = $2,
               email = $3,
               phone = $4,
               updated_at = $5
         WHERE id = $1
        RETURNING created_at
    `

	var created time.Time
	err := r.db.QueryRowContext(ctx, update,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Phone,
		now,
	).Scan(&created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customers.Customer{}, customers.ErrNotFound
		}
		return customers.Customer{}, fmt.Errorf("update customer: %w", err)
	}

	customer.CreatedAt = created
	customer.UpdatedAt = now
	return customer, nil
}

// List returns matching customers in the filter's order (newest first by default).
func (r *CustomerRepository) List(ctx context.Context, filter customers.ListFilter, offset, limit int) ([]customers.Customer, error) {
	var cond conditions
	if filter.NameContains != "" {
		cond.add("name ILIKE $%d", "%"+filter.NameContains+"%")
	}
	if filter.EmailContains != "" {
		cond.add("email ILIKE $%d", "%"+filter.EmailContains+"%")
	}
	if filter.PhonePrefix != "" {
		cond.add("phone LIKE $%d", filter.PhonePrefix+"%")
	}
	if !filter.CreatedFrom.IsZero() {
		cond.add("created_at >= $%d", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		cond.add("created_at <= $%d", filter.CreatedTo)
	}

	query := cond.query(`SELECT `+customerColumns+` FROM customers`, filter.Ordering(), offset, limit)
	args := cond.args

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := []customers.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

// Count returns the number of customers.
func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// DeleteInactive deletes every customer without an order dated on or after cutoff.
// Orders and order items go with them through ON DELETE CASCADE.
func (r *CustomerRepository) DeleteInactive(ctx context.Context, cutoff time.Time) (int, error) {
	const del = `
        DELETE FROM customers c
         WHERE NOT EXISTS (
               SELECT 1
                 FROM orders o
                WHERE o.customer_id = c.id
                  AND o.order_date >= $1
         )
    `

	res, err := r.db.ExecContext(ctx, del, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete inactive customers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete inactive customers: rows affected: %w", err)
	}
	return int(n), nil
}
