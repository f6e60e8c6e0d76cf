package store

import (
	"context"
	"database/sql"

	"github.com/roach88/casbinsql/internal/queryir"
	"github.com/roach88/casbinsql/internal/rule"
)

// Query runs a select on q and scans every row. Results are ordered by id.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, q Querier, sel queryir.Select) ([]rule.Row, error) {
	query, args, err := s.compiler.Compile(sel)
	if err != nil {
		return nil, newError(KindPrepare, "compile select: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newError(KindExecute, "query policy rows: %w", err)
	}
	defer rows.Close()

	out := []rule.Row{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, newError(KindExecute, "iterate policy rows: %w", err)
	}

	return out, nil
}

// scanRow scans id, ptype, v0..v5.
func scanRow(rows *sql.Rows) (rule.Row, error) {
	var (
		row   rule.Row
		ptype sql.NullString
	)
	err := rows.Scan(
		&row.ID,
		&ptype,
		&row.V[0],
		&row.V[1],
		&row.V[2],
		&row.V[3],
		&row.V[4],
		&row.V[5],
	)
	if err != nil {
		return rule.Row{}, newError(KindExecute, "scan policy row: %w", err)
	}
	row.PType = ptype.String
	return row, nil
}
