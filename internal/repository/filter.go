package repository

import (
	"fmt"
	"time"
)

// Filterable columns of the users table.
const (
	ColumnName      = "name"
	ColumnStatus    = "status"
	ColumnCreatedAt = "created_at"
)

// Op is the kind of comparison a Predicate applies.
type Op int

const (
	// OpEqual matches column = value.
	OpEqual Op = iota
	// OpContains matches column LIKE %value%.
	OpContains
	// OpAtMost matches column <= value.
	OpAtMost
	// OpAtLeast matches column >= value.
	OpAtLeast
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpContains:
		return "contains"
	case OpAtMost:
		return "at_most"
	case OpAtLeast:
		return "at_least"
	default:
		return "unknown"
	}
}

// Predicate is a single condition on one column.
type Predicate struct {
	Column string
	Op     Op
	Value  interface{}
}

// Clause renders the predicate as a GORM where expression and its argument.
func (p Predicate) Clause() (string, interface{}) {
	switch p.Op {
	case OpContains:
		return fmt.Sprintf("%s LIKE ?", p.Column), fmt.Sprintf("%%%v%%", p.Value)
	case OpAtMost:
		return fmt.Sprintf("%s <= ?", p.Column), p.Value
	case OpAtLeast:
		return fmt.Sprintf("%s >= ?", p.Column), p.Value
	default:
		return fmt.Sprintf("%s = ?", p.Column), p.Value
	}
}

// Filter holds at most one predicate per column.
// Setting a predicate on a column that already has one replaces it, so a later
// lower bound on created_at discards an earlier upper bound instead of forming a range.
type Filter struct {
	predicates []Predicate
}

// NewFilter returns an empty filter that matches every record.
func NewFilter() *Filter {
	return &Filter{}
}

// Equal sets column = value.
func (f *Filter) Equal(column string, value interface{}) *Filter {
	return f.set(Predicate{Column: column, Op: OpEqual, Value: value})
}

// Contains sets a substring match on column.
func (f *Filter) Contains(column, value string) *Filter {
	return f.set(Predicate{Column: column, Op: OpContains, Value: value})
}

// AtMost sets column <= value.
func (f *Filter) AtMost(column string, value time.Time) *Filter {
	return f.set(Predicate{Column: column, Op: OpAtMost, Value: value})
}

// AtLeast sets column >= value.
func (f *Filter) AtLeast(column string, value time.Time) *Filter {
	return f.set(Predicate{Column: column, Op: OpAtLeast, Value: value})
}

// Predicates returns a copy of the predicates in insertion order.
func (f *Filter) Predicates() []Predicate {
	if f == nil {
		return nil
	}
	out := make([]Predicate, len(f.predicates))
	copy(out, f.predicates)
	return out
}

// Get returns the predicate registered for column, if any.
func (f *Filter) Get(column string) (Predicate, bool) {
	if f == nil {
		return Predicate{}, false
	}
	for _, p := range f.predicates {
		if p.Column == column {
			return p, true
		}
	}
	return Predicate{}, false
}

func (f *Filter) set(p Predicate) *Filter {
	for i := range f.predicates {
		if f.predicates[i].Column == p.Column {
			f.predicates[i] = p
			return f
		}
	}
	f.predicates = append(f.predicates, p)
	return f
}
