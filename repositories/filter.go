package repositories

import (
	"reflect"
	"sort"
)

// Document is the dynamic unit stored by ListStore. Identity lives in the
// "_id" field, assigned by the store on insert.
type Document map[string]any

// IDField is the document field carrying the store-assigned identity.
const IDField = "_id"

type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
)

// Clause is one predicate over a document field. Clauses in a Filter are
// combined conjunctively; a clause on a missing field never matches.
type Clause struct {
	Field string
	Op    Op
	Value any
}

type Filter []Clause

func Eq(field string, value any) Clause  { return Clause{Field: field, Op: OpEq, Value: value} }
func Ne(field string, value any) Clause  { return Clause{Field: field, Op: OpNe, Value: value} }
func Gt(field string, value any) Clause  { return Clause{Field: field, Op: OpGt, Value: value} }
func Gte(field string, value any) Clause { return Clause{Field: field, Op: OpGte, Value: value} }
func Lt(field string, value any) Clause  { return Clause{Field: field, Op: OpLt, Value: value} }
func Lte(field string, value any) Clause { return Clause{Field: field, Op: OpLte, Value: value} }

func In(field string, values ...any) Clause {
	return Clause{Field: field, Op: OpIn, Value: values}
}

// Sort orders results by one document field.
type Sort struct {
	Field string
	Desc  bool
}

func (f Filter) Matches(doc Document) bool {
	for _, clause := range f {
		value, ok := doc[clause.Field]
		if !ok {
			return false
		}
		if !clause.matches(value) {
			return false
		}
	}
	return true
}

func (c Clause) matches(value any) bool {
	switch c.Op {
	case OpEq:
		return equal(value, c.Value)
	case OpNe:
		return !equal(value, c.Value)
	case OpIn:
		candidates, ok := c.Value.([]any)
		if !ok {
			return false
		}
		for _, candidate := range candidates {
			if equal(value, candidate) {
				return true
			}
		}
		return false
	default:
		cmp, ok := compare(value, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		case OpLte:
			return cmp <= 0
		}
		return false
	}
}

func sortDocuments(docs []Document, by Sort) {
	sort.SliceStable(docs, func(i, j int) bool {
		cmp, ok := compare(docs[i][by.Field], docs[j][by.Field])
		if !ok {
			return false
		}
		if by.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// asFloat widens every numeric representation to float64 so values survive
// a JSON round trip (which decodes all numbers as float64).
func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func equal(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// compare returns -1/0/1 for ordered values (numbers and strings) and
// reports false for anything without a defined order.
func compare(a, b any) (int, bool) {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	switch {
	case sa < sb:
		return -1, true
	case sa > sb:
		return 1, true
	}
	return 0, true
}
