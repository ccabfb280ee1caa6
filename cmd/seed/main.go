package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ezmobilemechanic/crm/internal/app"
	"github.com/ezmobilemechanic/crm/internal/config"
	"github.com/ezmobilemechanic/crm/internal/domain"
	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
	"github.com/ezmobilemechanic/crm/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog := logger.New("development")
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env)

	if cfg.DataBackend == "memory" {
		logr.Error("seed command requires DATA_BACKEND=postgres or DATA_BACKEND=sqlite")
		os.Exit(1)
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Error("failed to initialise application", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := seed(ctx, a.Domain, time.Now().UTC()); err != nil {
		logr.Error("seed failed", "err", err)
		os.Exit(1)
	}

	logr.Info("seed complete")
}

func seed(ctx context.Context, d domain.Container, now time.Time) error {
	sampleCustomers := []customers.CreateInput{
		{Name: "Alice Johnson", Email: "alice@example.com", Phone: "+12025550101"},
		{Name: "Bob Smith", Email: "bob@example.com", Phone: "904-555-0102"},
		{Name: "Carol Lee", Email: "carol@example.com"},
		{Name: "Dave Brown", Email: "dave@example.com", Phone: "904-555-0104"},
	}

	byEmail := make(map[string]customers.Customer, len(sampleCustomers))
	for _, in := range sampleCustomers {
		c, err := d.Customers.Create(ctx, in)
		if errors.Is(err, customers.ErrEmailExists) {
			existing, lerr := d.Customers.List(ctx, customers.ListFilter{EmailContains: in.Email}, 0, 1)
			if lerr != nil || len(existing) == 0 {
				return fmt.Errorf("load existing customer %s: %w", in.Email, err)
			}
			c, err = existing[0], nil
		}
		if err != nil {
			return fmt.Errorf("seed customer %s: %w", in.Email, err)
		}
		byEmail[c.Email] = c
		fmt.Printf("Customer: %s (%s)\n", c.Name, c.Email)
	}

	stock := func(n int) *int { return &n }
	sampleProducts := []products.CreateInput{
		{Name: "Laptop", Description: "14 inch business laptop", Price: 99999, Stock: stock(12)},
		{Name: "Wireless Mouse", Price: 2500, Stock: stock(5)},
		{Name: "Mechanical Keyboard", Price: 7550, Stock: stock(40)},
		{Name: "USB-C Cable", Price: 999, Stock: stock(3)},
	}

	byName := make(map[string]products.Product, len(sampleProducts))
	existing, err := d.Products.List(ctx, products.ListFilter{}, 0, 0)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	for _, p := range existing {
		byName[p.Name] = p
	}
	for _, in := range sampleProducts {
		if _, ok := byName[in.Name]; ok {
			continue
		}
		p, err := d.Products.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", in.Name, err)
		}
		byName[p.Name] = p
		fmt.Printf("Product: %s ($%d.%02d, stock %d)\n", p.Name, p.Price/100, p.Price%100, p.Stock)
	}

	// Carol's only order is older than a year; Dave never orders.
	sampleOrders := []struct {
		email string
		items map[string]int
		age   time.Duration
	}{
		{"alice@example.com", map[string]int{"Laptop": 1, "Wireless Mouse": 1}, 2 * 24 * time.Hour},
		{"alice@example.com", map[string]int{"USB-C Cable": 3}, 40 * 24 * time.Hour},
		{"bob@example.com", map[string]int{"Mechanical Keyboard": 1}, 5 * 24 * time.Hour},
		{"carol@example.com", map[string]int{"Wireless Mouse": 2}, 400 * 24 * time.Hour},
	}

	for _, so := range sampleOrders {
		input := orders.CreateInput{CustomerID: byEmail[so.email].ID}
		for name, qty := range so.items {
			input.Items = append(input.Items, orders.CreateOrderItem{ProductID: byName[name].ID, Quantity: qty})
		}
		at := now.Add(-so.age)
		input.OrderDate = &at

		o, err := d.Orders.Create(ctx, input)
		if err != nil {
			return fmt.Errorf("seed order for %s: %w", so.email, err)
		}
		fmt.Printf("Order: %s for %s ($%d.%02d on %s)\n", o.ID, so.email, o.TotalAmount/100, o.TotalAmount%100, o.OrderDate.Format(time.DateOnly))
	}

	return nil
}
