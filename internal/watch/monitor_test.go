package watch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"simwatch/internal/services/voiceapi"
	"simwatch/internal/sim"
	"simwatch/internal/watch"
)

type fakeStore struct {
	mu          sync.Mutex
	details     *voiceapi.BatchDetails
	detailsErr  error
	analysisErr error
	numbers     []sim.PhoneNumber
	fetches     int
}

func (s *fakeStore) BatchDetails(ctx context.Context, batchID string) (*voiceapi.BatchDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.detailsErr != nil {
		return nil, s.detailsErr
	}
	return s.details, nil
}

func (s *fakeStore) BatchAnalysis(ctx context.Context, batchID string) (*voiceapi.BatchAnalysis, error) {
	if s.analysisErr != nil {
		return nil, s.analysisErr
	}
	return &voiceapi.BatchAnalysis{Results: []sim.AnalysisResult{{CallUUID: "u1"}}}, nil
}

func (s *fakeStore) PhoneNumbers(ctx context.Context, countryCode string) (*voiceapi.NumberInventory, error) {
	return &voiceapi.NumberInventory{Numbers: s.numbers}, nil
}

func testDetails() *voiceapi.BatchDetails {
	return &voiceapi.BatchDetails{
		Batch: sim.Batch{ID: "b-1"},
		Jobs: []sim.Job{
			{JobID: "j-1", Status: sim.StatusCompleted, Call: &sim.Call{UUID: "u1", Status: "completed"}},
		},
	}
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	store := &fakeStore{details: testDetails(), numbers: []sim.PhoneNumber{{PhoneNumber: "+1", IsAvailable: true}}}
	monitor := watch.New(store, nil, nil, "b-1")

	if _, ok := monitor.Snapshot(); ok {
		t.Fatal("expected no snapshot before first refresh")
	}

	snapshot, err := monitor.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if snapshot.View.AnalyzedCount != 1 {
		t.Fatalf("AnalyzedCount = %d, want 1", snapshot.View.AnalyzedCount)
	}
	if len(snapshot.Numbers) != 1 {
		t.Fatalf("expected 1 number, got %d", len(snapshot.Numbers))
	}

	stored, ok := monitor.Snapshot()
	if !ok || stored.FetchedAt.IsZero() {
		t.Fatalf("expected stored snapshot, got %+v ok=%v", stored, ok)
	}
}

func TestRefreshToleratesAnalysisFailure(t *testing.T) {
	store := &fakeStore{details: testDetails(), analysisErr: errors.New("store returned status 502")}
	monitor := watch.New(store, nil, nil, "b-1")

	snapshot, err := monitor.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if snapshot.View.AnalyzedCount != 0 {
		t.Fatalf("expected view without results, got %d analyzed", snapshot.View.AnalyzedCount)
	}
}

func TestRefreshKeepsPreviousSnapshotOnFailure(t *testing.T) {
	store := &fakeStore{details: testDetails()}
	monitor := watch.New(store, nil, nil, "b-1")

	if _, err := monitor.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	store.mu.Lock()
	store.detailsErr = errors.New("boom")
	store.mu.Unlock()

	if _, err := monitor.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}
	if _, ok := monitor.Snapshot(); !ok {
		t.Fatal("previous snapshot should survive a failed refresh")
	}
}

func TestRunRefreshesOnInterval(t *testing.T) {
	store := &fakeStore{details: testDetails()}
	monitor := watch.New(store, nil, nil, "b-1", watch.WithInterval(5*time.Millisecond))

	updates := make(chan watch.Snapshot, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- monitor.Run(ctx, func(s watch.Snapshot) { updates <- s })
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-updates:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for refresh")
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
