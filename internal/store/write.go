package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/pulsesim/internal/circuit"
	"github.com/roach88/pulsesim/internal/ir"
)

// BeginRun inserts run and assigns it the next logical seq. The totals in
// run are ignored; FinishRun sets them.
func (s *Store) BeginRun(ctx context.Context, run Run) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return run, fmt.Errorf("begin run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, kind, source, graph_hash, sink)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, seq, string(run.Kind), run.Source, run.GraphHash, run.Sink)
	if err != nil {
		return run, fmt.Errorf("begin run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("begin run: commit: %w", err)
	}

	run.Seq = seq
	run.Presses, run.Low, run.High, run.Result = 0, 0, 0, 0
	run.Complete = false
	return run, nil
}

// WritePress stores the summary of one trigger, and its full trace when
// withPulses is set. Uses ON CONFLICT DO NOTHING for idempotency - writing
// the same press twice is silently ignored.
//
// The press row and its pulses are written in one transaction.
func (s *Store) WritePress(ctx context.Context, runID string, press int64, trace []circuit.Pulse, withPulses bool) error {
	digest, err := ir.TraceDigest(trace)
	if err != nil {
		return fmt.Errorf("write press %d: %w", press, err)
	}
	var low, high int64
	for _, p := range trace {
		if p.Level == circuit.High {
			high++
		} else {
			low++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write press %d: %w", press, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO presses (run_id, press, low, high, digest)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, press) DO NOTHING
	`, runID, press, low, high, digest)
	if err != nil {
		return fmt.Errorf("write press %d: %w", press, err)
	}

	if withPulses && len(trace) > 0 {
		if err := writePulses(ctx, tx, runID, press, trace); err != nil {
			return fmt.Errorf("write press %d: %w", press, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write press %d: commit: %w", press, err)
	}
	return nil
}

func writePulses(ctx context.Context, tx *sql.Tx, runID string, press int64, trace []circuit.Pulse) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pulses (run_id, press, seq, src, dst, level)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare pulses: %w", err)
	}
	defer stmt.Close()

	for _, p := range trace {
		if _, err := stmt.ExecContext(ctx, runID, press, p.Seq, p.From, p.To, p.Level.String()); err != nil {
			return fmt.Errorf("pulse %d: %w", p.Seq, err)
		}
	}
	return nil
}

// WritePeriods stores the periods a horizon run found.
func (s *Store) WritePeriods(ctx context.Context, runID string, periods []Period) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write periods: %w", err)
	}
	defer tx.Rollback()

	for _, p := range periods {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO periods (run_id, source, press)
			VALUES (?, ?, ?)
			ON CONFLICT(run_id, source) DO NOTHING
		`, runID, p.Source, p.Press)
		if err != nil {
			return fmt.Errorf("write periods: %s: %w", p.Source, err)
		}
	}
	return tx.Commit()
}

// FinishRun records the totals and answer of a run and marks it complete.
// Returns an error wrapping sql.ErrNoRows if the run does not exist.
func (s *Store) FinishRun(ctx context.Context, runID string, presses, low, high, result int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET presses = ?, low = ?, high = ?, result = ?, complete = 1
		WHERE id = ?
	`, presses, low, high, result, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}
