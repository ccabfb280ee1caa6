package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/listing"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

// filterParams reads optional range parameters, keeping the first error.
type filterParams struct {
	query url.Values
	err   error
}

func (p *filterParams) fail(name string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s parameter", name)
	}
}

func (p *filterParams) int64Ptr(name string) *int64 {
	v := strings.TrimSpace(p.query.Get(name))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(name)
		return nil
	}
	return &n
}

func (p *filterParams) intPtr(name string) *int {
	n := p.int64Ptr(name)
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func (p *filterParams) boolean(name string) bool {
	v := strings.TrimSpace(p.query.Get(name))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(name)
	}
	return b
}

// timeBound parses RFC3339 or YYYY-MM-DD. A bare date used as an upper bound
// covers the whole day.
func (p *filterParams) timeBound(name string, upper bool) time.Time {
	v := strings.TrimSpace(p.query.Get(name))
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		p.fail(name)
		return time.Time{}
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}

func (p *filterParams) order(allowed []string) listing.Order {
	o, err := listing.Parse(p.query.Get("order_by"), allowed...)
	if err != nil && p.err == nil {
		p.err = err
	}
	return o
}

func parseCustomerFilter(query url.Values) (customers.ListFilter, error) {
	p := filterParams{query: query}
	filter := customers.ListFilter{
		NameContains:  strings.TrimSpace(query.Get("name")),
		EmailContains: strings.TrimSpace(query.Get("email")),
		PhonePrefix:   strings.TrimSpace(query.Get("phone_prefix")),
		CreatedFrom:   p.timeBound("created_at_gte", false),
		CreatedTo:     p.timeBound("created_at_lte", true),
		Sort:          p.order(customers.SortFields),
	}
	return filter, p.err
}

func parseProductFilter(query url.Values) (products.ListFilter, error) {
	p := filterParams{query: query}
	filter := products.ListFilter{
		NameContains: strings.TrimSpace(query.Get("name")),
		PriceMin:     p.int64Ptr("price_gte"),
		PriceMax:     p.int64Ptr("price_lte"),
		StockMin:     p.intPtr("stock_gte"),
		StockMax:     p.intPtr("stock_lte"),
		LowStock:     p.boolean("low_stock"),
		Sort:         p.order(products.SortFields),
	}
	return filter, p.err
}

func parseOrderFilter(query url.Values) (orders.ListFilter, error) {
	p := filterParams{query: query}
	filter := orders.ListFilter{
		TotalMin:     p.int64Ptr("total_amount_gte"),
		TotalMax:     p.int64Ptr("total_amount_lte"),
		DateFrom:     p.timeBound("order_date_gte", false),
		DateTo:       p.timeBound("order_date_lte", true),
		CustomerName: strings.TrimSpace(query.Get("customer_name")),
		ProductID:    strings.TrimSpace(query.Get("product_id")),
		Sort:         p.order(orders.SortFields),
	}
	return filter, p.err
}
