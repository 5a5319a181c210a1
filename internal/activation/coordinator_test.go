package activation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"simwatch/internal/activation"
	"simwatch/internal/services"
	"simwatch/internal/services/voiceapi"
	"simwatch/internal/sim"
)

type fakeStore struct {
	mu sync.Mutex

	details *voiceapi.BatchDetails
	numbers []sim.PhoneNumber
	job     *sim.Job

	detailsCalls    int
	activateCalls   int
	deactivateCalls int
	retryCalls      int

	retryNewID   string
	retryStarted chan struct{}
	retryRelease chan struct{}

	inventoryCountry string
}

func (s *fakeStore) BatchDetails(ctx context.Context, batchID string) (*voiceapi.BatchDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailsCalls++
	return s.details, nil
}

func (s *fakeStore) JobStatus(ctx context.Context, jobID string) (*sim.Job, error) {
	if s.job == nil {
		return nil, errors.New("job not found")
	}
	return s.job, nil
}

func (s *fakeStore) PhoneNumbers(ctx context.Context, countryCode string) (*voiceapi.NumberInventory, error) {
	s.mu.Lock()
	s.inventoryCountry = countryCode
	s.mu.Unlock()
	return &voiceapi.NumberInventory{Numbers: s.numbers}, nil
}

func (s *fakeStore) ActivateJobs(ctx context.Context, batchID string, jobIDs []string, countryCode string) (*voiceapi.ActivationReceipt, error) {
	s.mu.Lock()
	s.activateCalls++
	s.mu.Unlock()
	assignments := make([]sim.Assignment, len(jobIDs))
	for i, id := range jobIDs {
		assignments[i] = sim.Assignment{JobID: id, PhoneNumber: "+1555000" + string(rune('0'+i))}
	}
	return &voiceapi.ActivationReceipt{ActivatedJobs: len(jobIDs), Assignments: assignments}, nil
}

func (s *fakeStore) DeactivateJobs(ctx context.Context, batchID string, jobIDs []string) (*voiceapi.DeactivationReceipt, error) {
	s.mu.Lock()
	s.deactivateCalls++
	s.mu.Unlock()
	return &voiceapi.DeactivationReceipt{ReleasedJobs: jobIDs}, nil
}

func (s *fakeStore) RetryJob(ctx context.Context, jobID string) (string, error) {
	s.mu.Lock()
	s.retryCalls++
	s.mu.Unlock()
	if s.retryStarted != nil {
		close(s.retryStarted)
		<-s.retryRelease
	}
	return s.retryNewID, nil
}

type fakeRecorder struct {
	activations   int
	deactivations int
	retries       int
}

func (r *fakeRecorder) RecordActivation(ctx context.Context, batchID string, assignments []sim.Assignment) error {
	r.activations++
	return nil
}

func (r *fakeRecorder) RecordDeactivation(ctx context.Context, batchID string, jobIDs []string) error {
	r.deactivations++
	return nil
}

func (r *fakeRecorder) RecordRetry(ctx context.Context, oldJobID, newJobID string) error {
	r.retries++
	return nil
}

func inactiveBatch(ids ...string) *voiceapi.BatchDetails {
	jobs := make([]sim.Job, len(ids))
	for i, id := range ids {
		jobs[i] = sim.Job{JobID: id, Status: sim.StatusInactive}
	}
	return &voiceapi.BatchDetails{Batch: sim.Batch{ID: "b-1"}, Jobs: jobs}
}

func freeNumbers(n int) []sim.PhoneNumber {
	numbers := make([]sim.PhoneNumber, n)
	for i := range numbers {
		numbers[i] = sim.PhoneNumber{PhoneNumber: "+1555", IsAvailable: true}
	}
	return numbers
}

func TestActivateRejectsWhenSlotsExhausted(t *testing.T) {
	// 10 jobs, 3 still inactive, only 2 free numbers.
	details := inactiveBatch("j-1", "j-2", "j-3")
	for i := 4; i <= 10; i++ {
		details.Jobs = append(details.Jobs, sim.Job{JobID: fmt.Sprintf("j-%d", i), Status: sim.StatusCompleted})
	}
	store := &fakeStore{
		details: details,
		numbers: freeNumbers(2),
	}
	coord := activation.New(store, nil, nil)

	_, err := coord.Activate(context.Background(), "b-1", []string{"j-1", "j-2", "j-3"})
	if err == nil {
		t.Fatal("expected capacity error")
	}
	if !errors.Is(err, services.ErrCapacity) {
		t.Fatalf("expected capacity marker, got %v", err)
	}
	if !services.RejectedBeforeDispatch(err) {
		t.Fatalf("capacity rejection should count as pre-dispatch: %v", err)
	}
	if store.activateCalls != 0 {
		t.Fatalf("expected no activation dispatch, got %d", store.activateCalls)
	}
}

func TestActivateSucceedsAndRefetchesDetails(t *testing.T) {
	store := &fakeStore{
		details: inactiveBatch("j-1", "j-2"),
		numbers: freeNumbers(2),
	}
	recorder := &fakeRecorder{}
	coord := activation.New(store, nil, nil, activation.WithRecorder(recorder))

	result, err := coord.Activate(context.Background(), "b-1", []string{"j-1", "j-2"})
	if err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	if len(result.Activated) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(result.Activated))
	}
	if result.Details == nil {
		t.Fatal("expected refetched details")
	}
	if store.detailsCalls != 2 {
		t.Fatalf("expected precondition fetch plus refresh, got %d detail fetches", store.detailsCalls)
	}
	if recorder.activations != 1 {
		t.Fatalf("expected 1 recorded activation, got %d", recorder.activations)
	}
}

func TestActivateCountryOverride(t *testing.T) {
	store := &fakeStore{details: inactiveBatch("j-1"), numbers: freeNumbers(1)}
	coord := activation.New(store, nil, nil, activation.WithCountryCode("IN"))

	if _, err := coord.Activate(context.Background(), "b-1", []string{"j-1"}); err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	if store.inventoryCountry != "IN" {
		t.Fatalf("inventory requested for country %q, want IN", store.inventoryCountry)
	}
}

func TestActivateRejectsEmptyAndBlankIDs(t *testing.T) {
	store := &fakeStore{details: inactiveBatch("j-1"), numbers: freeNumbers(1)}
	coord := activation.New(store, nil, nil)

	for _, ids := range [][]string{nil, {}, {"  ", ""}} {
		_, err := coord.Activate(context.Background(), "b-1", ids)
		if err == nil || !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %v, got %v", ids, err)
		}
		if !strings.Contains(err.Error(), "no valid job IDs") {
			t.Fatalf("unexpected message: %v", err)
		}
	}
	if store.activateCalls != 0 {
		t.Fatalf("expected no dispatch, got %d", store.activateCalls)
	}
}

func TestActivateRejectsNonInactiveJob(t *testing.T) {
	details := inactiveBatch("j-1", "j-2")
	details.Jobs[1].Status = sim.StatusActive
	store := &fakeStore{details: details, numbers: freeNumbers(5)}
	coord := activation.New(store, nil, nil)

	_, err := coord.Activate(context.Background(), "b-1", []string{"j-1", "j-2"})
	if !errors.Is(err, services.ErrStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if store.activateCalls != 0 {
		t.Fatalf("expected no dispatch, got %d", store.activateCalls)
	}
}

func TestActivateFirstNPicksInactiveInOrder(t *testing.T) {
	details := &voiceapi.BatchDetails{Jobs: []sim.Job{
		{JobID: "j-1", Status: sim.StatusCompleted},
		{JobID: "", Status: sim.StatusInactive},
		{JobID: "j-3", Status: sim.StatusInactive},
		{JobID: "j-4", Status: sim.StatusInactive},
		{JobID: "j-5", Status: sim.StatusInactive},
	}}
	store := &fakeStore{details: details, numbers: freeNumbers(2)}
	coord := activation.New(store, nil, nil)

	result, err := coord.ActivateFirstN(context.Background(), "b-1", 2)
	if err != nil {
		t.Fatalf("ActivateFirstN returned error: %v", err)
	}
	if len(result.Activated) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(result.Activated))
	}
	if result.Activated[0].JobID != "j-3" || result.Activated[1].JobID != "j-4" {
		t.Fatalf("unexpected selection: %+v", result.Activated)
	}
}

func TestActivateFirstNWithNoCandidates(t *testing.T) {
	details := &voiceapi.BatchDetails{Jobs: []sim.Job{
		{JobID: "j-1", Status: sim.StatusCompleted},
	}}
	store := &fakeStore{details: details}
	coord := activation.New(store, nil, nil)

	_, err := coord.ActivateFirstN(context.Background(), "b-1", 3)
	if err == nil || !strings.Contains(err.Error(), "no valid job IDs") {
		t.Fatalf("expected no-valid-jobs error, got %v", err)
	}
}

func TestDeactivateRejectsJobMidCall(t *testing.T) {
	details := &voiceapi.BatchDetails{Jobs: []sim.Job{
		{JobID: "j-1", Status: sim.StatusInProgress},
	}}
	store := &fakeStore{details: details}
	coord := activation.New(store, nil, nil)

	_, err := coord.Deactivate(context.Background(), "b-1", []string{"j-1"})
	if !errors.Is(err, services.ErrStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if !services.RejectedBeforeDispatch(err) {
		t.Fatalf("mid-call rejection should count as pre-dispatch: %v", err)
	}
	if store.deactivateCalls != 0 {
		t.Fatalf("expected no deactivation dispatch, got %d", store.deactivateCalls)
	}
}

func TestDeactivateReleasesActiveJobs(t *testing.T) {
	details := &voiceapi.BatchDetails{Jobs: []sim.Job{
		{JobID: "j-1", Status: sim.StatusActive},
		{JobID: "j-2", Status: sim.StatusActive},
	}}
	store := &fakeStore{details: details}
	recorder := &fakeRecorder{}
	coord := activation.New(store, nil, nil, activation.WithRecorder(recorder))

	result, err := coord.Deactivate(context.Background(), "b-1", []string{"j-1", "j-2"})
	if err != nil {
		t.Fatalf("Deactivate returned error: %v", err)
	}
	if result.Released != 2 {
		t.Fatalf("released = %d, want 2", result.Released)
	}
	if recorder.deactivations != 1 {
		t.Fatalf("expected 1 recorded deactivation, got %d", recorder.deactivations)
	}
}

func TestRetryRequiresFailedJob(t *testing.T) {
	store := &fakeStore{job: &sim.Job{JobID: "j-1", Status: sim.StatusCompleted}}
	coord := activation.New(store, nil, nil)

	_, err := coord.Retry(context.Background(), "j-1")
	if !errors.Is(err, services.ErrStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if store.retryCalls != 0 {
		t.Fatalf("expected no retry dispatch, got %d", store.retryCalls)
	}
}

func TestRetrySerializedPerJob(t *testing.T) {
	store := &fakeStore{
		job:          &sim.Job{JobID: "j-1", Status: sim.StatusFailed},
		retryNewID:   "j-9",
		retryStarted: make(chan struct{}),
		retryRelease: make(chan struct{}),
	}
	recorder := &fakeRecorder{}
	coord := activation.New(store, nil, nil, activation.WithRecorder(recorder))

	done := make(chan struct{})
	go func() {
		defer close(done)
		newID, err := coord.Retry(context.Background(), "j-1")
		if err != nil {
			t.Errorf("first retry failed: %v", err)
		}
		if newID != "j-9" {
			t.Errorf("unexpected new job id %q", newID)
		}
	}()

	<-store.retryStarted
	_, err := coord.Retry(context.Background(), "j-1")
	if !errors.Is(err, services.ErrStateConflict) {
		t.Fatalf("expected in-flight conflict, got %v", err)
	}
	close(store.retryRelease)
	<-done

	if store.retryCalls != 1 {
		t.Fatalf("expected a single retry dispatch, got %d", store.retryCalls)
	}
	if recorder.retries != 1 {
		t.Fatalf("expected 1 recorded retry, got %d", recorder.retries)
	}
}
