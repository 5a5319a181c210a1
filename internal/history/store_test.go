package history_test

import (
	"context"
	"testing"
	"time"

	"simwatch/internal/config"
	"simwatch/internal/history"
	"simwatch/internal/sim"
)

func newStore(t *testing.T) *history.Store {
	t.Helper()
	cfg := config.Default()
	cfg.History.Enabled = true
	cfg.History.Dir = t.TempDir()
	cfg.Logging.Dir = t.TempDir()

	store, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndListOperations(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.RecordActivation(ctx, "b-1", []sim.Assignment{
		{JobID: "j-1", PhoneNumber: "+15550001"},
		{JobID: "j-2", PhoneNumber: "+15550002"},
	})
	if err != nil {
		t.Fatalf("RecordActivation returned error: %v", err)
	}
	if err := store.RecordDeactivation(ctx, "b-1", []string{"j-1"}); err != nil {
		t.Fatalf("RecordDeactivation returned error: %v", err)
	}
	if err := store.RecordRetry(ctx, "j-3", "j-9"); err != nil {
		t.Fatalf("RecordRetry returned error: %v", err)
	}
	if err := store.RecordAnalysisSession(ctx, "b-1", "converged", 5, 5, 12, 36*time.Second); err != nil {
		t.Fatalf("RecordAnalysisSession returned error: %v", err)
	}

	ops, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(ops) != 5 {
		t.Fatalf("expected 5 operations, got %d", len(ops))
	}
	// newest first
	if ops[0].Kind != history.KindAnalysis {
		t.Fatalf("expected analysis entry first, got %s", ops[0].Kind)
	}
	if ops[1].Kind != history.KindRetry || ops[1].Detail != "retried as j-9" {
		t.Fatalf("unexpected retry entry: %+v", ops[1])
	}
	if ops[4].Kind != history.KindActivation || ops[4].JobID != "j-1" || ops[4].Detail != "+15550001" {
		t.Fatalf("unexpected activation entry: %+v", ops[4])
	}
	if ops[0].OccurredAt.IsZero() {
		t.Fatal("expected parsed timestamp")
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		if err := store.RecordDeactivation(ctx, "b-1", []string{"j"}); err != nil {
			t.Fatalf("RecordDeactivation returned error: %v", err)
		}
	}
	ops, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(ops))
	}
}

func TestOpenRejectsSecondWriter(t *testing.T) {
	cfg := config.Default()
	cfg.History.Enabled = true
	cfg.History.Dir = t.TempDir()
	cfg.Logging.Dir = t.TempDir()

	first, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("first Open returned error: %v", err)
	}
	defer first.Close()

	if _, err := history.Open(&cfg); err == nil {
		t.Fatal("expected second Open to fail while lock is held")
	}
}

func TestReopenAcceptsExistingSchema(t *testing.T) {
	cfg := config.Default()
	cfg.History.Enabled = true
	cfg.History.Dir = t.TempDir()
	cfg.Logging.Dir = t.TempDir()

	store, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.RecordRetry(context.Background(), "j-1", "j-2"); err != nil {
		t.Fatalf("RecordRetry returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	ops, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("expected persisted entry, got %d", len(ops))
	}
}
