package postgres

import (
	"fmt"
	"strings"
)

// whereBuilder assembles a WHERE clause where scope conditions are ORed
// together and every other condition is ANDed with that group.
type whereBuilder struct {
	scope []string
	conds []string
	args  []interface{}
}

// bind appends a positional argument and returns its placeholder
func (b *whereBuilder) bind(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) orScope(cond string) {
	b.scope = append(b.scope, cond)
}

func (b *whereBuilder) and(cond string) {
	b.conds = append(b.conds, cond)
}

// String renders the clause, including the WHERE keyword, or "" when empty
func (b *whereBuilder) String() string {
	parts := make([]string, 0, len(b.conds)+1)
	if len(b.scope) > 0 {
		parts = append(parts, "("+strings.Join(b.scope, " OR ")+")")
	}
	parts = append(parts, b.conds...)
	if len(parts) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(parts, " AND ")
}
