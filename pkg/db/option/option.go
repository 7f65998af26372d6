// Package option holds composable gorm query modifiers shared by repositories.
package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ Operator = "="
	IN Operator = "IN"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single WHERE condition.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return db
		}
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		if op == IN {
			return db.Where(fmt.Sprintf("%s IN ?", field), cond.Value)
		}
		return db.Where(fmt.Sprintf("%s %s ?", field, op), cond.Value)
	})
}

// SortBy is a validated ORDER BY clause.
type SortBy struct {
	Field string
	Desc  bool
}

// WithQuerySortBy validates the requested column against allowed. An unknown
// column yields no ordering.
func WithQuerySortBy(field, order string, allowed map[string]bool) []SortBy {
	field = strings.ToLower(strings.TrimSpace(field))
	if !allowed[field] {
		return nil
	}
	return []SortBy{{
		Field: field,
		Desc:  strings.EqualFold(strings.TrimSpace(order), "desc"),
	}}
}

// WithSortBy applies ORDER BY clauses in order.
func WithSortBy(sorts ...[]SortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		for _, group := range sorts {
			for _, s := range group {
				if s.Desc {
					db = db.Order(s.Field + " DESC")
					continue
				}
				db = db.Order(s.Field + " ASC")
			}
		}
		return db
	})
}

// WithOrder applies a raw, trusted ORDER BY expression.
func WithOrder(expr string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(expr) == "" {
			return db
		}
		return db.Order(expr)
	})
}

// WithLimit caps the number of rows returned.
func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}
