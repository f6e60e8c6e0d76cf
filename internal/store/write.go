package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/casbinsql/internal/metrics"
	"github.com/roach88/casbinsql/internal/queryir"
)

// Exec compiles stmt and runs it on q, returning the number of affected rows.
// Compilation failures are KindPrepare, database failures KindExecute.
func (s *Store) Exec(ctx context.Context, q Querier, stmt queryir.Statement) (int64, error) {
	query, args, err := s.compiler.Compile(stmt)
	if err != nil {
		return 0, newError(KindPrepare, "compile %T: %w", stmt, err)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, newError(KindExecute, "exec %T: %w", stmt, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, newError(KindExecute, "exec %T: rows affected: %w", stmt, err)
	}

	s.metrics.AddRows(rowKind(stmt), n)
	return n, nil
}

// WithTx runs fn inside one transaction: begin, fn, commit.
//
// If fn fails the transaction is rolled back and fn's error is returned; a
// rollback failure is joined to it. Begin and commit failures are
// KindTransaction. Calls must not nest.
func (s *Store) WithTx(ctx context.Context, name string, fn func(q Querier) error) error {
	log := s.logger.With("tx_id", uuid.NewString(), "op", name)

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		s.metrics.ObserveTransaction(metrics.TxBeginFailed)
		return newError(KindTransaction, "%s: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	log.Debug("transaction started")

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed", "error", rbErr)
			err = errors.Join(err, newError(KindTransaction, "%s: rollback: %w", name, rbErr))
		}
		s.metrics.ObserveTransaction(metrics.TxRollback)
		log.Warn("transaction rolled back", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.metrics.ObserveTransaction(metrics.TxCommitFailed)
		return newError(KindTransaction, "%s: commit: %w", name, err)
	}

	s.metrics.ObserveTransaction(metrics.TxCommit)
	log.Debug("transaction committed")
	return nil
}

func rowKind(stmt queryir.Statement) string {
	switch stmt.(type) {
	case queryir.Insert, queryir.InsertBatch:
		return "insert"
	case queryir.Delete:
		return "delete"
	case queryir.Update:
		return "update"
	default:
		return fmt.Sprintf("%T", stmt)
	}
}
