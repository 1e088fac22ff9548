package store

import (
	"context"
	"fmt"

	"github.com/roach88/pulsesim/internal/circuit"
	"github.com/roach88/pulsesim/internal/ir"
)

const runColumns = `id, seq, kind, source, graph_hash, sink, presses, low, high, result, complete`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var kind string
	err := row.Scan(&r.ID, &r.Seq, &kind, &r.Source, &r.GraphHash, &r.Sink,
		&r.Presses, &r.Low, &r.High, &r.Result, &r.Complete)
	r.Kind = RunKind(kind)
	return r, err
}

// ReadRun retrieves a single run by id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns every run ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC, id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadPresses returns the per-trigger summaries of a run ordered by press.
func (s *Store) ReadPresses(ctx context.Context, runID string) ([]PressSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT press, low, high, digest
		FROM presses
		WHERE run_id = ?
		ORDER BY press ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query presses: %w", err)
	}
	defer rows.Close()

	presses := []PressSummary{}
	for rows.Next() {
		var p PressSummary
		if err := rows.Scan(&p.Press, &p.Low, &p.High, &p.Digest); err != nil {
			return nil, fmt.Errorf("scan press: %w", err)
		}
		presses = append(presses, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presses: %w", err)
	}
	return presses, nil
}

// ReadTrace returns the recorded pulses of one press, or of every press
// when press <= 0, ordered by (press, seq).
func (s *Store) ReadTrace(ctx context.Context, runID string, press int64) ([]circuit.Pulse, error) {
	query := `
		SELECT press, seq, src, dst, level
		FROM pulses
		WHERE run_id = ?`
	args := []any{runID}
	if press > 0 {
		query += ` AND press = ?`
		args = append(args, press)
	}
	query += ` ORDER BY press ASC, seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pulses: %w", err)
	}
	defer rows.Close()

	trace := []circuit.Pulse{}
	for rows.Next() {
		var p circuit.Pulse
		var level string
		if err := rows.Scan(&p.Press, &p.Seq, &p.From, &p.To, &level); err != nil {
			return nil, fmt.Errorf("scan pulse: %w", err)
		}
		if p.Level, err = circuit.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("pulse %d/%d: %w", p.Press, p.Seq, err)
		}
		trace = append(trace, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pulses: %w", err)
	}
	return trace, nil
}

// ReadPeriods returns the periods of a horizon run ordered by source.
func (s *Store) ReadPeriods(ctx context.Context, runID string) ([]Period, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, press
		FROM periods
		WHERE run_id = ?
		ORDER BY source COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	periods := []Period{}
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.Source, &p.Press); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}
	return periods, nil
}

// VerifyPress recomputes the digest of a recorded press from its stored
// pulses and compares it with the summary.
//
// Returns ErrNotRecorded if the press has pulses counted but none stored,
// and an error wrapping sql.ErrNoRows if the press does not exist.
func (s *Store) VerifyPress(ctx context.Context, runID string, press int64) error {
	var want string
	var low, high int64
	err := s.db.QueryRowContext(ctx, `
		SELECT digest, low, high FROM presses WHERE run_id = ? AND press = ?
	`, runID, press).Scan(&want, &low, &high)
	if err != nil {
		return fmt.Errorf("verify press %d: %w", press, err)
	}

	trace, err := s.ReadTrace(ctx, runID, press)
	if err != nil {
		return fmt.Errorf("verify press %d: %w", press, err)
	}
	if len(trace) == 0 && low+high > 0 {
		return fmt.Errorf("verify press %d: %w", press, ErrNotRecorded)
	}

	got, err := ir.TraceDigest(trace)
	if err != nil {
		return fmt.Errorf("verify press %d: %w", press, err)
	}
	if got != want {
		return fmt.Errorf("verify press %d: digest mismatch: stored %s, recomputed %s", press, want, got)
	}
	return nil
}
