package domain

import (
	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

// Container wires domain services together.
type Container struct {
	Customers customers.Service
	Products  products.Service
	Orders    orders.Service
}

// Options configures the domain container.
type Options struct {
	CustomerRepo customers.Repository
	ProductRepo  products.Repository
	OrderRepo    orders.Repository
}

// New constructs a domain container with provided repositories.
func New(opts Options) Container {
	customerRepo := opts.CustomerRepo
	if customerRepo == nil {
		customerRepo = customers.NullRepository{}
	}

	productRepo := opts.ProductRepo
	if productRepo == nil {
		productRepo = products.NullRepository{}
	}

	orderRepo := opts.OrderRepo
	if orderRepo == nil {
		orderRepo = orders.NullRepository{}
	}

	return Container{
		Customers: customers.NewService(customerRepo),
		Products:  products.NewService(productRepo),
		Orders:    orders.NewService(orderRepo, customerRepo, productRepo),
	}
}
