package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Batch is one recorded compile.
type Batch struct {
	ID             string `json:"id"`
	Source         string `json:"source"`
	Seq            int64  `json:"seq"`
	StatementCount int    `json:"statement_count"`
}

// Statement is one DDL statement within a batch.
type Statement struct {
	BatchID  string        `json:"batch_id"`
	Position int           `json:"position"`
	ID       string        `json:"id"`
	Kind     StatementKind `json:"kind"`
	SQL      string        `json:"sql"`
}

// RecordBatch appends a batch of statements in a single transaction.
// Statements keep their given order. Blank statements are rejected.
//
// Without an injected Clock the seq is allocated by the insert itself, so
// stores sharing one ledger file never hand out the same seq. Retrying a
// batch ID that was already written is a no-op and returns the stored seq.
func (s *Store) RecordBatch(ctx context.Context, source string, stmts []string) (Batch, error) {
	if len(stmts) == 0 {
		return Batch{}, fmt.Errorf("record batch: no statements")
	}
	for i, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			return Batch{}, fmt.Errorf("record batch: statement %d is empty", i)
		}
	}

	batch := Batch{
		ID:             s.ids.Generate(),
		Source:         source,
		StatementCount: len(stmts),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Batch{}, fmt.Errorf("record batch: begin: %w", err)
	}
	defer tx.Rollback()

	if batch.Seq, err = insertBatch(ctx, tx, batch, s.clock); err != nil {
		return Batch{}, fmt.Errorf("record batch: insert batch: %w", err)
	}

	for i, stmt := range stmts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO statements (batch_id, position, id, kind, sql)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(batch_id, position) DO NOTHING
		`, batch.ID, i, StatementID(stmt), string(ClassifyStatement(stmt)), stmt)
		if err != nil {
			return Batch{}, fmt.Errorf("record batch: insert statement %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Batch{}, fmt.Errorf("record batch: commit: %w", err)
	}

	s.logger.Debug("recorded ddl batch",
		"batch_id", batch.ID,
		"source", batch.Source,
		"seq", batch.Seq,
		"statements", batch.StatementCount)

	return batch, nil
}

// insertBatch writes the batch row and returns its seq. A nil clock means
// seq is MAX(seq)+1, computed within the same write statement.
//
// Only an ID conflict is absorbed. A seq collision from an injected clock
// surfaces as a UNIQUE constraint error.
func insertBatch(ctx context.Context, tx *sql.Tx, batch Batch, clock Clock) (int64, error) {
	var row *sql.Row
	if clock != nil {
		row = tx.QueryRowContext(ctx, `
			INSERT INTO batches (id, source, seq, statement_count)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
			RETURNING seq
		`, batch.ID, batch.Source, clock.Next(), batch.StatementCount)
	} else {
		row = tx.QueryRowContext(ctx, `
			INSERT INTO batches (id, source, seq, statement_count)
			SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ? FROM batches WHERE true
			ON CONFLICT(id) DO NOTHING
			RETURNING seq
		`, batch.ID, batch.Source, batch.StatementCount)
	}

	var seq int64
	err := row.Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `SELECT seq FROM batches WHERE id = ?`, batch.ID).Scan(&seq)
	}
	return seq, err
}
