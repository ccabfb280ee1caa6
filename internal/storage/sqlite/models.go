package sqlite

import (
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

type customerModel struct {
	ID        string `gorm:"primaryKey;type:text"`
	Name      string `gorm:"size:100;not null"`
	Email     string `gorm:"size:254;not null;uniqueIndex"`
	Phone     string `gorm:"size:20;not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (customerModel) TableName() string { return "customers" }

func (m customerModel) toDomain() customers.Customer {
	return customers.Customer{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func customerFromDomain(c customers.Customer) customerModel {
	return customerModel{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type productModel struct {
	ID          string `gorm:"primaryKey;type:text"`
	Name        string `gorm:"size:100;not null;uniqueIndex"`
	Description string `gorm:"type:text;not null;default:''"`
	Price       int64  `gorm:"not null"`
	Stock       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (productModel) TableName() string { return "products" }

func (m productModel) toDomain() products.Product {
	return products.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type orderModel struct {
	ID          string    `gorm:"primaryKey;type:text"`
	CustomerID  string    `gorm:"type:text;not null;index:idx_orders_customer_date,priority:1"`
	TotalAmount int64     `gorm:"not null"`
	OrderDate   time.Time `gorm:"not null;index:idx_orders_customer_date,priority:2"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []orderItemModel `gorm:"foreignKey:OrderID"`
}

func (orderModel) TableName() string { return "orders" }

func (m orderModel) toDomain() orders.Order {
	o := orders.Order{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		TotalAmount: m.TotalAmount,
		OrderDate:   m.OrderDate.UTC(),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	for _, item := range m.Items {
		o.Items = append(o.Items, orders.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return o
}

type orderItemModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"type:text;not null;index"`
	ProductID string `gorm:"type:text;not null"`
	Quantity  int    `gorm:"not null;default:1"`
	UnitPrice int64  `gorm:"not null"`
	SortOrder int    `gorm:"not null;default:0"`
}

func (orderItemModel) TableName() string { return "order_items" }
