package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
)

// CustomerRepository implements customers.Repository with gorm.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository builds a repository on db.
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (customers.Customer, error) {
	var m customerModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return customers.Customer{}, customers.ErrNotFound
	}
	if err != nil {
		return customers.Customer{}, fmt.Errorf("find customer by id: %w", err)
	}
	return m.toDomain(), nil
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (customers.Customer, error) {
	var m customerModel
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return customers.Customer{}, customers.ErrNotFound
	}
	if err != nil {
		return customers.Customer{}, fmt.Errorf("find customer by email: %w", err)
	}
	return m.toDomain(), nil
}

func (r *CustomerRepository) Save(ctx context.Context, customer customers.Customer) (customers.Customer, error) {
	db := r.db.WithContext(ctx)
	now := time.Now().UTC()

	if customer.ID == "" {
		customer.ID = uuid.NewString()
		customer.CreatedAt = now
		customer.UpdatedAt = now
		m := customerFromDomain(customer)
		if err := db.Create(&m).Error; err != nil {
			return customers.Customer{}, translateCustomerErr("insert customer", err)
		}
		return m.toDomain(), nil
	}

	if customer.CreatedAt.IsZero() {
		var existing customerModel
		err := db.Select("created_at").Where("id = ?", customer.ID).First(&existing).Error
		switch {
		case err == nil:
			customer.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			customer.CreatedAt = now
		default:
			return customers.Customer{}, fmt.Errorf("load customer: %w", err)
		}
	}
	customer.UpdatedAt = now

	m := customerFromDomain(customer)
	if err := db.Save(&m).Error; err != nil {
		return customers.Customer{}, translateCustomerErr("update customer", err)
	}
	return m.toDomain(), nil
}

// List returns matching customers in the filter's order (newest first by default).
func (r *CustomerRepository) List(ctx context.Context, filter customers.ListFilter, offset, limit int) ([]customers.Customer, error) {
	q := r.db.WithContext(ctx).Model(&customerModel{})
	if filter.NameContains != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.NameContains))+"%")
	}
	if filter.EmailContains != "" {
		q = q.Where("LOWER(email) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.EmailContains))+"%")
	}
	if filter.PhonePrefix != "" {
		q = q.Where("phone LIKE ? ESCAPE '\\'", escapeLike(filter.PhonePrefix)+"%")
	}
	if !filter.CreatedFrom.IsZero() {
		q = q.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		q = q.Where("created_at <= ?", filter.CreatedTo.UTC())
	}
	q = paginate(q.Order(filter.Ordering().SQL()).Order("id"), offset, limit)

	var models []customerModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	out := make([]customers.Customer, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&customerModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return int(n), nil
}

// DeleteInactive removes customers with no order dated on or after cutoff.
// Their orders and order items are removed in the same transaction.
func (r *CustomerRepository) DeleteInactive(ctx context.Context, cutoff time.Time) (int, error) {
	cutoff = cutoff.UTC()
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recentOrder := func() *gorm.DB {
			return tx.Model(&orderModel{}).
				Select("1").
				Where("orders.customer_id = customers.id AND orders.order_date >= ?", cutoff)
		}
		inactiveIDs := func() *gorm.DB {
			return tx.Model(&customerModel{}).Select("id").Where("NOT EXISTS (?)", recentOrder())
		}

		staleOrders := tx.Model(&orderModel{}).Select("id").Where("customer_id IN (?)", inactiveIDs())
		if err := tx.Where("order_id IN (?)", staleOrders).Delete(&orderItemModel{}).Error; err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if err := tx.Where("customer_id IN (?)", inactiveIDs()).Delete(&orderModel{}).Error; err != nil {
			return fmt.Errorf("delete orders: %w", err)
		}

		res := tx.Where("NOT EXISTS (?)", recentOrder()).Delete(&customerModel{})
		if res.Error != nil {
			return fmt.Errorf("delete customers: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete inactive customers: %w", err)
	}
	return int(deleted), nil
}

func translateCustomerErr(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return customers.ErrEmailExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func paginate(q *gorm.DB, offset, limit int) *gorm.DB {
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
