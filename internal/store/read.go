package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrBatchNotFound is returned when a batch ID is not in the ledger.
var ErrBatchNotFound = errors.New("batch not found")

// Batches returns all batches ordered by ORDER BY seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) when the ledger is empty.
func (s *Store) Batches(ctx context.Context) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, seq, statement_count
		FROM batches
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []Batch{}
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Source, &b.Seq, &b.StatementCount); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

// Batch returns a single batch by ID.
func (s *Store) Batch(ctx context.Context, id string) (Batch, error) {
	var b Batch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, seq, statement_count
		FROM batches
		WHERE id = ?
	`, id).Scan(&b.ID, &b.Source, &b.Seq, &b.StatementCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if err != nil {
		return Batch{}, fmt.Errorf("query batch: %w", err)
	}
	return b, nil
}

// Statements returns the statements of a batch in emitted order.
func (s *Store) Statements(ctx context.Context, batchID string) ([]Statement, error) {
	if _, err := s.Batch(ctx, batchID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, position, id, kind, sql
		FROM statements
		WHERE batch_id = ?
		ORDER BY position ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()
	return scanStatements(rows)
}

// StatementHistory returns every recorded occurrence of the statement with
// the given content ID, oldest batch first.
func (s *Store) StatementHistory(ctx context.Context, statementID string) ([]Statement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.batch_id, st.position, st.id, st.kind, st.sql
		FROM statements st
		JOIN batches b ON st.batch_id = b.id
		WHERE st.id = ?
		ORDER BY b.seq ASC, st.batch_id COLLATE BINARY ASC, st.position ASC
	`, statementID)
	if err != nil {
		return nil, fmt.Errorf("query statement history: %w", err)
	}
	defer rows.Close()
	return scanStatements(rows)
}

func scanStatements(rows *sql.Rows) ([]Statement, error) {
	out := []Statement{}
	for rows.Next() {
		var st Statement
		var kind string
		if err := rows.Scan(&st.BatchID, &st.Position, &st.ID, &kind, &st.SQL); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		st.Kind = StatementKind(kind)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return out, nil
}
