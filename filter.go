package casbinsql

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/casbinsql/internal/queryir"
)

// Filter selects rows whose Columns[i] equals Values[i]. Columns must be
// ptype or v0..v5.
type Filter struct {
	Columns []string
	Values  []string
}

// FilterFunc writes a raw "column = value" expression into where.
type FilterFunc func(where *string)

// normalizeFilter turns one of the accepted filter shapes into an ordered
// list of column equality constraints:
//   - string: a "column=value" expression
//   - Filter or *Filter: columns and values paired by position
//   - FilterFunc or func(*string): called once, its output parsed as a string
//
// Anything else, including nil, is rejected.
func normalizeFilter(filter any) ([]queryir.Equals, error) {
	switch f := filter.(type) {
	case string:
		return parseExpression(f)
	case Filter:
		return f.constraints()
	case *Filter:
		if f == nil {
			return nil, fmt.Errorf("nil *Filter")
		}
		return f.constraints()
	case FilterFunc:
		return callFilterFunc(f)
	case func(*string):
		return callFilterFunc(f)
	default:
		return nil, fmt.Errorf("unsupported filter type %T", filter)
	}
}

func (f Filter) constraints() ([]queryir.Equals, error) {
	if len(f.Columns) != len(f.Values) {
		return nil, fmt.Errorf("filter has %d columns but %d values", len(f.Columns), len(f.Values))
	}
	if len(f.Columns) == 0 {
		return nil, fmt.Errorf("filter has no constraints")
	}

	eqs := make([]queryir.Equals, 0, len(f.Columns))
	for i, col := range f.Columns {
		eq, err := constraint(col, f.Values[i])
		if err != nil {
			return nil, err
		}
		eqs = append(eqs, eq)
	}
	return eqs, nil
}

func callFilterFunc(fn func(*string)) ([]queryir.Equals, error) {
	if fn == nil {
		return nil, fmt.Errorf("nil filter func")
	}
	var where string
	fn(&where)
	return parseExpression(where)
}

// parseExpression strips whitespace and quotes, then splits on the first '='.
func parseExpression(expr string) ([]queryir.Equals, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' || r == '"' {
			return -1
		}
		return r
	}, expr)

	column, value, ok := strings.Cut(cleaned, "=")
	if !ok {
		return nil, fmt.Errorf("filter expression %q has no '='", expr)
	}

	eq, err := constraint(column, value)
	if err != nil {
		return nil, err
	}
	return []queryir.Equals{eq}, nil
}

func constraint(column, value string) (queryir.Equals, error) {
	if !queryir.IsColumn(column) {
		return queryir.Equals{}, fmt.Errorf("filter column %q is not one of %v", column, queryir.Columns)
	}
	return queryir.Equals{Column: column, Value: value}, nil
}
