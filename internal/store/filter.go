package store

import (
	"fmt"
	"strings"
)

// Filter is the common shape every aggregate-specific List method
// accepts: equality and IN predicates by column, an optional range on
// one timestamp/numeric column, ordering, and pagination.
type Filter struct {
	Eq         map[string]any
	In         map[string][]any
	RangeCol   string
	RangeSince any
	RangeUntil any
	OrderBy    string
	Desc       bool
	Limit      int
	Offset     int
}

// whereClause builds a "WHERE ..." fragment (or "" if f has no
// predicates) plus the ordered argument list, in the teacher's
// dynamic-conditions style generalized across every column.
func (f Filter) whereClause() (string, []any) {
	var conditions []string
	var args []any

	for _, col := range sortedKeys(f.Eq) {
		conditions = append(conditions, fmt.Sprintf("%s = ?", col))
		args = append(args, f.Eq[col])
	}
	for _, col := range sortedKeys(f.In) {
		vals := f.In[col]
		if len(vals) == 0 {
			continue
		}
		placeholders := make([]string, len(vals))
		for i, v := range vals {
			placeholders[i] = "?"
			args = append(args, v)
		}
		conditions = append(conditions, fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ",")))
	}
	if f.RangeCol != "" {
		if f.RangeSince != nil {
			conditions = append(conditions, fmt.Sprintf("%s >= ?", f.RangeCol))
			args = append(args, f.RangeSince)
		}
		if f.RangeUntil != nil {
			conditions = append(conditions, fmt.Sprintf("%s <= ?", f.RangeCol))
			args = append(args, f.RangeUntil)
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// suffix appends ORDER BY / LIMIT / OFFSET to a query built from
// whereClause, returning the additional args in the right order.
func (f Filter) suffix(defaultOrder string) (string, []any) {
	var b strings.Builder
	var args []any

	order := f.OrderBy
	if order == "" {
		order = defaultOrder
	}
	if order != "" {
		b.WriteString(" ORDER BY " + order)
		if f.Desc {
			b.WriteString(" DESC")
		}
	}
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	if f.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, f.Offset)
	}
	return b.String(), args
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic ordering keeps generated SQL (and therefore test
	// expectations on argument order) stable across runs.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// chunk splits ids into groups of at most size, used by the
// deduplicator's ≤100/≤500 existence-check batches.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for len(items) > 0 {
		if len(items) < size {
			size = len(items)
		}
		out = append(out, items[:size])
		items = items[size:]
	}
	return out
}
