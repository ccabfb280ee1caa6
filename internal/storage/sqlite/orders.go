package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ezmobilemechanic/crm/internal/domain/orders"
)

// OrderRepository implements orders.Repository with gorm.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository builds a repository on db.
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (orders.Order, error) {
	var m orderModel
	err := r.withItems(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return orders.Order{}, orders.ErrNotFound
	}
	if err != nil {
		return orders.Order{}, fmt.Errorf("find order: %w", err)
	}
	return m.toDomain(), nil
}

// Save writes the order row and replaces its items in one transaction.
func (r *OrderRepository) Save(ctx context.Context, order orders.Order) (orders.Order, error) {
	now := time.Now().UTC()
	isNew := order.ID == ""
	if isNew {
		order.ID = uuid.NewString()
		order.CreatedAt = now
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	order.OrderDate = order.OrderDate.UTC()
	order.UpdatedAt = now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !isNew && order.CreatedAt.IsZero() {
			var existing orderModel
			err := tx.Select("created_at").Where("id = ?", order.ID).First(&existing).Error
			switch {
			case err == nil:
				order.CreatedAt = existing.CreatedAt
			case errors.Is(err, gorm.ErrRecordNotFound):
				order.CreatedAt = now
			default:
				return fmt.Errorf("load order: %w", err)
			}
		}

		m := orderModel{
			ID:          order.ID,
			CustomerID:  order.CustomerID,
			TotalAmount: order.TotalAmount,
			OrderDate:   order.OrderDate,
			CreatedAt:   order.CreatedAt,
			UpdatedAt:   order.UpdatedAt,
		}
		if err := tx.Omit("Items").Save(&m).Error; err != nil {
			return fmt.Errorf("save order: %w", err)
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&orderItemModel{}).Error; err != nil {
			return fmt.Errorf("clear order items: %w", err)
		}
		if len(order.Items) == 0 {
			return nil
		}

		items := make([]orderItemModel, 0, len(order.Items))
		for i, item := range order.Items {
			items = append(items, orderItemModel{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				SortOrder: i,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return orders.Order{}, err
	}
	return order, nil
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]orders.Order, error) {
	q := r.withItems(ctx).Where("customer_id = ?", customerID)
	return r.find(paginate(q, offset, limit))
}

func (r *OrderRepository) ListSince(ctx context.Context, since time.Time) ([]orders.Order, error) {
	return r.find(r.withItems(ctx).Where("order_date >= ?", since.UTC()))
}

// List returns matching orders in the filter's order (newest first by default).
func (r *OrderRepository) List(ctx context.Context, filter orders.ListFilter, offset, limit int) ([]orders.Order, error) {
	q := r.withItems(ctx)
	if filter.TotalMin != nil {
		q = q.Where("total_amount >= ?", *filter.TotalMin)
	}
	if filter.TotalMax != nil {
		q = q.Where("total_amount <= ?", *filter.TotalMax)
	}
	if !filter.DateFrom.IsZero() {
		q = q.Where("order_date >= ?", filter.DateFrom.UTC())
	}
	if !filter.DateTo.IsZero() {
		q = q.Where("order_date <= ?", filter.DateTo.UTC())
	}
	if filter.CustomerName != "" {
		q = q.Where("customer_id IN (SELECT id FROM customers WHERE LOWER(name) LIKE ? ESCAPE '\\')",
			"%"+escapeLike(strings.ToLower(filter.CustomerName))+"%")
	}
	if filter.ProductID != "" {
		q = q.Where("EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = orders.id AND i.product_id = ?)", filter.ProductID)
	}
	return r.findOrdered(paginate(q, offset, limit), filter.Ordering().SQL())
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&orderModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return int(n), nil
}

// find runs q newest order date first.
func (r *OrderRepository) find(q *gorm.DB) ([]orders.Order, error) {
	return r.findOrdered(q, "order_date DESC")
}

func (r *OrderRepository) findOrdered(q *gorm.DB, order string) ([]orders.Order, error) {
	var models []orderModel
	if err := q.Order(order).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	out := make([]orders.Order, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}
