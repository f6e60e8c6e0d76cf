package rule

import (
	"database/sql"
	"fmt"
	"strings"
)

// MaxFields is the number of value columns (v0..v5) a row carries.
const MaxFields = 6

// Rule is a policy rule with a fixed-capacity field array and an explicit length.
type Rule struct {
	PType  string
	fields [MaxFields]string
	n      int
}

// New builds a Rule from a ptype and its fields.
// Fields are kept as given, including trailing empty ones; use Canonical to trim.
func New(ptype string, fields []string) (Rule, error) {
	if len(fields) > MaxFields {
		return Rule{}, fmt.Errorf("rule has %d fields, at most %d supported", len(fields), MaxFields)
	}
	r := Rule{PType: ptype, n: len(fields)}
	copy(r.fields[:], fields)
	return r, nil
}

// Len returns the number of fields the rule was built with.
func (r Rule) Len() int {
	return r.n
}

// Fields returns a copy of the rule's fields.
func (r Rule) Fields() []string {
	out := make([]string, r.n)
	copy(out, r.fields[:r.n])
	return out
}

// Canonical returns the rule with trailing empty fields removed.
func (r Rule) Canonical() Rule {
	c := r
	c.n = Arity(r.fields[:r.n])
	for i := c.n; i < MaxFields; i++ {
		c.fields[i] = ""
	}
	return c
}

// Line returns ptype followed by the canonical fields, the shape casbin's
// persist.LoadPolicyArray expects.
func (r Rule) Line() []string {
	c := r.Canonical()
	return append([]string{c.PType}, c.fields[:c.n]...)
}

// String renders the rule as a casbin policy line.
func (r Rule) String() string {
	return strings.Join(r.Line(), ", ")
}

// Row is the stored form of a rule.
type Row struct {
	ID    int64
	PType string
	V     [MaxFields]sql.NullString
}

// Encode maps fields by position onto v0..v5; unused columns are NULL.
func Encode(r Rule) Row {
	row := Row{PType: r.PType}
	for i := 0; i < r.n; i++ {
		row.V[i] = sql.NullString{String: r.fields[i], Valid: true}
	}
	return row
}

// Decode turns a row back into its canonical rule.
// A NULL column before the last non-empty one decodes to "".
func Decode(row Row) Rule {
	var raw [MaxFields]string
	for i, v := range row.V {
		if v.Valid {
			raw[i] = v.String
		}
	}
	r := Rule{PType: row.PType, fields: raw}
	r.n = Arity(raw[:])
	for i := r.n; i < MaxFields; i++ {
		r.fields[i] = ""
	}
	return r
}

// Arity is the index of the last non-empty field plus one.
func Arity(fields []string) int {
	i := len(fields) - 1
	for ; i >= 0; i-- {
		if fields[i] != "" {
			break
		}
	}
	return i + 1
}

// Args returns the row's value columns as bind arguments, NULL columns as nil.
func (row Row) Args() []any {
	args := make([]any, MaxFields)
	for i, v := range row.V {
		if v.Valid {
			args[i] = v.String
		}
	}
	return args
}
