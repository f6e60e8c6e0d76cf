package queryir

import (
	"fmt"
	"slices"
)

// MaxFields is the number of value columns a row carries.
const MaxFields = 6

// Columns is the allow-list of column names statements may reference.
var Columns = []string{"ptype", "v0", "v1", "v2", "v3", "v4", "v5"}

// ValueColumn returns the name of the i-th value column (v0..v5).
func ValueColumn(i int) string {
	return fmt.Sprintf("v%d", i)
}

// IsColumn reports whether name is in the column allow-list.
func IsColumn(name string) bool {
	return slices.Contains(Columns, name)
}

// Statement is a single SQL statement against the policy table.
type Statement interface {
	statementNode()
}

// Predicate is a WHERE condition.
type Predicate interface {
	predicateNode()
}

// Insert writes one rule. Only ptype and the supplied fields are listed as
// columns, so the statement is as wide as the rule's arity.
//
//	INSERT INTO t (ptype, v0, v1) VALUES (?, ?, ?)
type Insert struct {
	PType  string
	Fields []string
}

func (Insert) statementNode() {}

// InsertBatch writes many rules of one ptype in a single statement. Every rule
// is padded with NULL up to MaxFields so all tuples share the full column list.
//
//	INSERT INTO t (ptype, v0, v1, v2, v3, v4, v5) VALUES (?, ...), (?, ...)
type InsertBatch struct {
	PType string
	Rules [][]string
}

func (InsertBatch) statementNode() {}

// Select reads rows. A nil Where selects the whole table.
type Select struct {
	Where Predicate
}

func (Select) statementNode() {}

// Delete removes rows matching Where. A nil Where is only accepted when All
// is set, so a missing predicate can never wipe the table by accident.
type Delete struct {
	Where Predicate
	All   bool
}

func (Delete) statementNode() {}

// Update replaces the value columns of matching rows with Set. Every column
// v0..v5 is written, those past len(Set) as NULL. SET values are bound
// before WHERE values.
//
//	UPDATE t SET v0 = ?, ..., v5 = ? WHERE ptype = ? AND v0 = ?
type Update struct {
	Set   []string
	Where Predicate
}

func (Update) statementNode() {}

// Equals is column = value.
type Equals struct {
	Column string
	Value  string
}

func (Equals) predicateNode() {}

// IsEmpty matches a column that is NULL or the empty string.
type IsEmpty struct {
	Column string
}

func (IsEmpty) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// RuleMatch matches rows holding exactly the given rule. Every value column
// is constrained: a non-empty field must be equal, while an empty or absent
// field requires NULL or "". Fields past MaxFields are ignored.
func RuleMatch(ptype string, fields []string) And {
	preds := make([]Predicate, 0, MaxFields+1)
	preds = append(preds, Equals{Column: "ptype", Value: ptype})
	for i := 0; i < MaxFields; i++ {
		col := ValueColumn(i)
		if i < len(fields) && fields[i] != "" {
			preds = append(preds, Equals{Column: col, Value: fields[i]})
		} else {
			preds = append(preds, IsEmpty{Column: col})
		}
	}
	return And{Predicates: preds}
}

// FieldWindow matches rows of ptype whose value columns in
// [fieldIndex, fieldIndex+len(fieldValues)) equal the given values. Columns
// outside v0..v5 are ignored, and an empty value means "any value".
func FieldWindow(ptype string, fieldIndex int, fieldValues ...string) And {
	preds := []Predicate{Equals{Column: "ptype", Value: ptype}}
	for i := 0; i < MaxFields; i++ {
		if i < fieldIndex || i >= fieldIndex+len(fieldValues) {
			continue
		}
		v := fieldValues[i-fieldIndex]
		if v == "" {
			continue
		}
		preds = append(preds, Equals{Column: ValueColumn(i), Value: v})
	}
	return And{Predicates: preds}
}

// Conjunction wraps equality constraints in an And.
func Conjunction(eqs []Equals) And {
	preds := make([]Predicate, len(eqs))
	for i, eq := range eqs {
		preds[i] = eq
	}
	return And{Predicates: preds}
}
