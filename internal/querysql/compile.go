package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/casbinsql/internal/queryir"
	"github.com/roach88/casbinsql/internal/rule"
)

// Placeholder selects how bind parameters are written into SQL text.
type Placeholder int

const (
	// Question writes every parameter as "?" (SQLite, MySQL).
	Question Placeholder = iota
	// Dollar writes numbered parameters "$1", "$2", ... (PostgreSQL).
	Dollar
)

// selectColumns is the fixed projection for reads. id is scanned and dropped.
const selectColumns = "id, ptype, v0, v1, v2, v3, v4, v5"

// SQLCompiler compiles queryir statements to parameterized SQL for one table.
//
// CRITICAL: values are never interpolated. Only the table name and
// allow-listed column names appear in the SQL text.
type SQLCompiler struct {
	Table       string
	Placeholder Placeholder
}

// NewSQLCompiler creates a compiler for the given table and placeholder style.
// The table name must already be validated by the caller.
func NewSQLCompiler(table string, placeholder Placeholder) *SQLCompiler {
	return &SQLCompiler{Table: table, Placeholder: placeholder}
}

// Compile converts a statement to (sql, params, error).
func (c *SQLCompiler) Compile(stmt queryir.Statement) (string, []any, error) {
	if err := queryir.Validate(stmt); err != nil {
		return "", nil, err
	}

	b := &binder{style: c.Placeholder}

	switch s := stmt.(type) {
	case queryir.Insert:
		return c.compileInsert(b, s)
	case queryir.InsertBatch:
		return c.compileInsertBatch(b, s)
	case queryir.Select:
		return c.compileSelect(b, s)
	case queryir.Delete:
		return c.compileDelete(b, s)
	case queryir.Update:
		return c.compileUpdate(b, s)
	default:
		return "", nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

// compileInsert lists ptype plus one column per supplied field.
func (c *SQLCompiler) compileInsert(b *binder, s queryir.Insert) (string, []any, error) {
	r, err := rule.New(s.PType, s.Fields)
	if err != nil {
		return "", nil, fmt.Errorf("insert: %w", err)
	}
	args := rule.Encode(r).Args()[:r.Len()]

	cols := make([]string, 0, len(args)+1)
	marks := make([]string, 0, len(args)+1)

	cols = append(cols, "ptype")
	marks = append(marks, b.bind(r.PType))
	for i, v := range args {
		cols = append(cols, queryir.ValueColumn(i))
		marks = append(marks, b.bind(v))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.Table,
		strings.Join(cols, ", "),
		strings.Join(marks, ", "))

	return sql, b.args, nil
}

// compileInsertBatch emits one tuple per rule over the full column list.
// Params are flattened in tuple order; absent fields bind as NULL.
func (c *SQLCompiler) compileInsertBatch(b *binder, s queryir.InsertBatch) (string, []any, error) {
	tuples := make([]string, 0, len(s.Rules))

	for i, fields := range s.Rules {
		r, err := rule.New(s.PType, fields)
		if err != nil {
			return "", nil, fmt.Errorf("insert batch: rule %d: %w", i, err)
		}

		marks := make([]string, 0, len(queryir.Columns))
		marks = append(marks, b.bind(r.PType))
		for _, v := range rule.Encode(r).Args() {
			marks = append(marks, b.bind(v))
		}
		tuples = append(tuples, "("+strings.Join(marks, ", ")+")")
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		c.Table,
		strings.Join(queryir.Columns, ", "),
		strings.Join(tuples, ", "))

	return sql, b.args, nil
}

// compileSelect reads the fixed projection ordered by id.
func (c *SQLCompiler) compileSelect(b *binder, s queryir.Select) (string, []any, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s", selectColumns, c.Table)

	if s.Where != nil {
		where, err := c.compilePredicate(b, s.Where)
		if err != nil {
			return "", nil, fmt.Errorf("compile where: %w", err)
		}
		sql += " WHERE " + where
	}

	sql += " ORDER BY id ASC"

	return sql, b.args, nil
}

func (c *SQLCompiler) compileDelete(b *binder, s queryir.Delete) (string, []any, error) {
	sql := "DELETE FROM " + c.Table

	if s.Where != nil {
		where, err := c.compilePredicate(b, s.Where)
		if err != nil {
			return "", nil, fmt.Errorf("compile where: %w", err)
		}
		sql += " WHERE " + where
	}

	return sql, b.args, nil
}

// compileUpdate writes all six value columns, binding SET values first and
// WHERE values after.
func (c *SQLCompiler) compileUpdate(b *binder, s queryir.Update) (string, []any, error) {
	r, err := rule.New("", s.Set)
	if err != nil {
		return "", nil, fmt.Errorf("update: %w", err)
	}

	sets := make([]string, 0, rule.MaxFields)
	for i, v := range rule.Encode(r).Args() {
		sets = append(sets, fmt.Sprintf("%s = %s", queryir.ValueColumn(i), b.bind(v)))
	}

	where, err := c.compilePredicate(b, s.Where)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		c.Table,
		strings.Join(sets, ", "),
		where)

	return sql, b.args, nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
// CRITICAL: values are never interpolated.
func (c *SQLCompiler) compilePredicate(b *binder, p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return fmt.Sprintf("%s = %s", pred.Column, b.bind(pred.Value)), nil
	case queryir.IsEmpty:
		return fmt.Sprintf("(%s IS NULL OR %s = '')", pred.Column, pred.Column), nil
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		for _, sub := range pred.Predicates {
			sql, err := c.compilePredicate(b, sub)
			if err != nil {
				return "", err
			}
			parts = append(parts, sql)
		}
		return strings.Join(parts, " AND "), nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// binder collects params and renders placeholders in binding order.
type binder struct {
	style Placeholder
	args  []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	if b.style == Dollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}
