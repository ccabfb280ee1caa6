// Package listing holds the ordering rule shared by the customer, product and order list filters.
package listing

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidOrder is returned by Parse for a field outside the allowed set.
var ErrInvalidOrder = errors.New("invalid order_by")

// Order sorts a listing by Field, descending when Desc is set.
// The zero Order means the listing's default ordering.
type Order struct {
	Field string
	Desc  bool
}

// Parse reads "field" or "-field". An empty s yields the zero Order.
func Parse(s string, allowed ...string) (Order, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Order{}, nil
	}
	o := Order{Field: s}
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		o = Order{Field: rest, Desc: true}
	}
	if !slices.Contains(allowed, o.Field) {
		return Order{}, fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidOrder, s, strings.Join(allowed, ", "))
	}
	return o, nil
}

// Resolve returns o when its field is allowed, otherwise def.
func Resolve(o, def Order, allowed ...string) Order {
	if o.Field == "" || !slices.Contains(allowed, o.Field) {
		return def
	}
	return o
}

// SQL renders the body of an ORDER BY clause. Field must already be resolved
// against an allow-list.
func (o Order) SQL() string {
	if o.Desc {
		return o.Field + " DESC"
	}
	return o.Field + " ASC"
}

// Apply turns a three-way comparison into the ordering's direction.
func (o Order) Apply(c int) int {
	if o.Desc {
		return -c
	}
	return c
}
