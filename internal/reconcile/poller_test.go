package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"simwatch/internal/reconcile"
	"simwatch/internal/services/voiceapi"
	"simwatch/internal/sim"
)

type scriptedStore struct {
	receipt    *voiceapi.BatchAnalyzeReceipt
	analyzeErr error

	// counts holds the result-list length returned per poll; a negative
	// value scripts a fetch error for that poll. The last entry repeats.
	counts []int
	calls  int
}

func (s *scriptedStore) AnalyzeBatch(ctx context.Context, batchID string, forceRefresh bool) (*voiceapi.BatchAnalyzeReceipt, error) {
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	if s.receipt != nil {
		return s.receipt, nil
	}
	return &voiceapi.BatchAnalyzeReceipt{Status: "started", TotalCalls: 5}, nil
}

func (s *scriptedStore) BatchAnalysis(ctx context.Context, batchID string) (*voiceapi.BatchAnalysis, error) {
	idx := s.calls
	if idx >= len(s.counts) {
		idx = len(s.counts) - 1
	}
	s.calls++
	count := s.counts[idx]
	if count < 0 {
		return nil, errors.New("fetch failed")
	}
	results := make([]sim.AnalysisResult, count)
	return &voiceapi.BatchAnalysis{Results: results}, nil
}

func newPoller(store reconcile.Store, maxPolls int) *reconcile.Poller {
	return reconcile.New(store, nil, nil,
		reconcile.WithInterval(time.Millisecond),
		reconcile.WithMaxPolls(maxPolls))
}

func TestRunConverges(t *testing.T) {
	store := &scriptedStore{counts: []int{1, 3, 5}}
	var progress []reconcile.Progress

	result, err := newPoller(store, 20).Run(context.Background(), "b-1", 5, true, func(p reconcile.Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Outcome != reconcile.OutcomeConverged {
		t.Fatalf("outcome = %s, want converged", result.Outcome)
	}
	if result.Analyzed != 5 || result.Polls != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(progress) != 3 || progress[0].SessionID == "" {
		t.Fatalf("unexpected progress: %+v", progress)
	}
}

func TestRunProgressNeverRegresses(t *testing.T) {
	store := &scriptedStore{counts: []int{3, 3, 5, 4, 6}}
	var seen []int

	result, err := newPoller(store, 10).Run(context.Background(), "b-1", 6, false, func(p reconcile.Progress) {
		seen = append(seen, p.Analyzed)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Outcome != reconcile.OutcomeConverged {
		t.Fatalf("outcome = %s, want converged", result.Outcome)
	}
	want := []int{3, 3, 5, 5, 6}
	if len(seen) != len(want) {
		t.Fatalf("expected %d progress reports, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("progress[%d] = %d, want %d (%v)", i, seen[i], want[i], seen)
		}
	}
}

func TestRunSkipsFetchErrors(t *testing.T) {
	store := &scriptedStore{counts: []int{-1, 2, -1, 4}}

	result, err := newPoller(store, 10).Run(context.Background(), "b-1", 4, false, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Outcome != reconcile.OutcomeConverged {
		t.Fatalf("outcome = %s, want converged", result.Outcome)
	}
	if result.Polls != 4 {
		t.Fatalf("polls = %d, want 4 (failed polls count against the ceiling)", result.Polls)
	}
}

func TestRunNothingToAnalyze(t *testing.T) {
	store := &scriptedStore{receipt: &voiceapi.BatchAnalyzeReceipt{Status: voiceapi.BatchAnalyzeStatusNoCalls}}

	result, err := newPoller(store, 10).Run(context.Background(), "b-1", 5, false, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Outcome != reconcile.OutcomeNothingToAnalyze {
		t.Fatalf("outcome = %s, want nothing_to_analyze", result.Outcome)
	}
	if store.calls != 0 {
		t.Fatalf("expected no analysis polls, got %d", store.calls)
	}
}

func TestRunTimesOutAtCeiling(t *testing.T) {
	store := &scriptedStore{counts: []int{2}}

	result, err := newPoller(store, 4).Run(context.Background(), "b-1", 5, false, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Outcome != reconcile.OutcomeTimedOut {
		t.Fatalf("outcome = %s, want timed_out", result.Outcome)
	}
	if result.Polls != 4 || result.Analyzed != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunCanceled(t *testing.T) {
	store := &scriptedStore{counts: []int{1}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newPoller(store, 10).Run(ctx, "b-1", 5, false, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Outcome != reconcile.OutcomeCanceled {
		t.Fatalf("outcome = %s, want canceled", result.Outcome)
	}
}

func TestSessionConvergesAndClosesProgress(t *testing.T) {
	store := &scriptedStore{counts: []int{2, 5}}

	session := newPoller(store, 20).Start(context.Background(), "b-1", 5, false)
	var seen []int
	for p := range session.Progress() {
		seen = append(seen, p.Analyzed)
	}
	result, err := session.Wait()
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if result.Outcome != reconcile.OutcomeConverged {
		t.Fatalf("outcome = %s, want converged", result.Outcome)
	}
	if len(seen) == 0 || seen[len(seen)-1] != 5 {
		t.Fatalf("unexpected progress stream: %v", seen)
	}
}

func TestSessionCancelStopsPolling(t *testing.T) {
	store := &scriptedStore{counts: []int{1}}

	session := newPoller(store, 1000).Start(context.Background(), "b-1", 5, false)
	<-session.Progress()
	session.Cancel()

	result, err := session.Wait()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Outcome != reconcile.OutcomeCanceled {
		t.Fatalf("outcome = %s, want canceled", result.Outcome)
	}
}

func TestRunSurfacesAnalyzeFailure(t *testing.T) {
	store := &scriptedStore{analyzeErr: errors.New("store returned status 502")}

	if _, err := newPoller(store, 10).Run(context.Background(), "b-1", 5, true, nil); err == nil {
		t.Fatal("expected error when analyze trigger fails")
	}
}
