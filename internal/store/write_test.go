package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/roach88/pulsesim/internal/ir"
)

func TestBeginRun_AssignsSequentialSeq(t *testing.T) {
	s := createTestStore(t)

	r1 := beginTestRun(t, s, "run-1")
	r2 := beginTestRun(t, s, "run-2")

	if r1.Seq != 1 || r2.Seq != 2 {
		t.Errorf("seqs = %d, %d; want 1, 2", r1.Seq, r2.Seq)
	}
	if r1.Complete {
		t.Error("new run must not be complete")
	}
}

func TestBeginRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	beginTestRun(t, s, "run-1")

	_, err := s.BeginRun(context.Background(), Run{ID: "run-1", Kind: RunKindCount, GraphHash: "h"})
	if err == nil {
		t.Fatal("expected error for duplicate run id")
	}
}

func TestBeginRun_RejectsUnknownKind(t *testing.T) {
	s := createTestStore(t)

	_, err := s.BeginRun(context.Background(), Run{ID: "run-1", Kind: "replay", GraphHash: "h"})
	if err == nil {
		t.Fatal("expected CHECK constraint error for unknown kind")
	}
}

func TestWritePress_SummaryOnly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	beginTestRun(t, s, "run-1")

	if err := s.WritePress(ctx, "run-1", 1, testTrace(1), false); err != nil {
		t.Fatalf("WritePress() failed: %v", err)
	}

	presses, err := s.ReadPresses(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadPresses() failed: %v", err)
	}
	if len(presses) != 1 {
		t.Fatalf("got %d presses, want 1", len(presses))
	}
	p := presses[0]
	if p.Low != 8 || p.High != 4 {
		t.Errorf("counts = %d/%d, want 8/4", p.Low, p.High)
	}
	want, _ := ir.TraceDigest(testTrace(1))
	if p.Digest != want {
		t.Errorf("digest = %s, want %s", p.Digest, want)
	}

	trace, err := s.ReadTrace(ctx, "run-1", 1)
	if err != nil {
		t.Fatalf("ReadTrace() failed: %v", err)
	}
	if len(trace) != 0 {
		t.Errorf("summary-only press stored %d pulses", len(trace))
	}
	if err := s.VerifyPress(ctx, "run-1", 1); !errors.Is(err, ErrNotRecorded) {
		t.Errorf("VerifyPress() = %v, want ErrNotRecorded", err)
	}
}

func TestWritePress_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	beginTestRun(t, s, "run-1")

	for i := 0; i < 2; i++ {
		if err := s.WritePress(ctx, "run-1", 1, testTrace(1), true); err != nil {
			t.Fatalf("WritePress() #%d failed: %v", i, err)
		}
	}

	trace, err := s.ReadTrace(ctx, "run-1", 1)
	if err != nil {
		t.Fatalf("ReadTrace() failed: %v", err)
	}
	if len(trace) != 12 {
		t.Errorf("got %d pulses, want 12", len(trace))
	}
}

func TestWritePress_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	err := s.WritePress(context.Background(), "missing", 1, testTrace(1), false)
	if err == nil {
		t.Fatal("expected foreign key error for unknown run")
	}
}

func TestFinishRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	beginTestRun(t, s, "run-1")

	if err := s.FinishRun(ctx, "run-1", 1000, 8000, 4000, 32_000_000); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	run, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if !run.Complete || run.Presses != 1000 || run.Result != 32_000_000 {
		t.Errorf("run = %+v", run)
	}
}

func TestFinishRun_Missing(t *testing.T) {
	s := createTestStore(t)

	err := s.FinishRun(context.Background(), "missing", 1, 1, 1, 1)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("FinishRun() = %v, want sql.ErrNoRows", err)
	}
}

func TestWritePeriods(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if _, err := s.BeginRun(ctx, Run{ID: "h-1", Kind: RunKindHorizon, GraphHash: "h", Sink: "rx"}); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	err := s.WritePeriods(ctx, "h-1", []Period{{"sc", 7}, {"sa", 3}, {"sb", 5}})
	if err != nil {
		t.Fatalf("WritePeriods() failed: %v", err)
	}

	periods, err := s.ReadPeriods(ctx, "h-1")
	if err != nil {
		t.Fatalf("ReadPeriods() failed: %v", err)
	}
	want := []Period{{"sa", 3}, {"sb", 5}, {"sc", 7}}
	if len(periods) != len(want) {
		t.Fatalf("got %v, want %v", periods, want)
	}
	for i := range want {
		if periods[i] != want[i] {
			t.Errorf("periods[%d] = %v, want %v", i, periods[i], want[i])
		}
	}
}
