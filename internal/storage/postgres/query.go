package postgres

import (
	"fmt"
	"strings"

	"github.com/ezmobilemechanic/crm/internal/domain/listing"
)

// conditions collects WHERE predicates and their positional arguments.
// Each format string carries one %d verb for the argument's $n placeholder.
type conditions struct {
	where []string
	args  []any
}

func (c *conditions) add(format string, arg any) {
	c.args = append(c.args, arg)
	c.where = append(c.where, fmt.Sprintf(format, len(c.args)))
}

// query appends the WHERE clause, the ordering and the pagination to base.
func (c *conditions) query(base string, order listing.Order, offset, limit int) string {
	var b strings.Builder
	b.WriteString(base)
	if len(c.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(c.where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s, id", order.SQL())

	c.args = append(c.args, offset)
	fmt.Fprintf(&b, " OFFSET $%d", len(c.args))
	if limit > 0 {
		c.args = append(c.args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(c.args))
	}
	return b.String()
}
