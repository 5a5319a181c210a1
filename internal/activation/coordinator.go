package activation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"simwatch/internal/config"
	"simwatch/internal/logging"
	"simwatch/internal/notifications"
	"simwatch/internal/services"
	"simwatch/internal/services/voiceapi"
	"simwatch/internal/sim"
	"simwatch/internal/slots"
)

// Store is the slice of the backend client a coordinator needs.
type Store interface {
	BatchDetails(ctx context.Context, batchID string) (*voiceapi.BatchDetails, error)
	JobStatus(ctx context.Context, jobID string) (*sim.Job, error)
	PhoneNumbers(ctx context.Context, countryCode string) (*voiceapi.NumberInventory, error)
	ActivateJobs(ctx context.Context, batchID string, jobIDs []string, countryCode string) (*voiceapi.ActivationReceipt, error)
	DeactivateJobs(ctx context.Context, batchID string, jobIDs []string) (*voiceapi.DeactivationReceipt, error)
	RetryJob(ctx context.Context, jobID string) (string, error)
}

// Recorder persists mutating operations to the local audit log.
type Recorder interface {
	RecordActivation(ctx context.Context, batchID string, assignments []sim.Assignment) error
	RecordDeactivation(ctx context.Context, batchID string, jobIDs []string) error
	RecordRetry(ctx context.Context, oldJobID, newJobID string) error
}

// Result carries the backend receipt plus the authoritative batch state
// refetched after the mutation.
type Result struct {
	Activated []sim.Assignment
	Released  int
	Details   *voiceapi.BatchDetails
}

// Coordinator owns activation, deactivation, and retry for one backend.
type Coordinator struct {
	store       Store
	notifier    notifications.Service
	recorder    Recorder
	logger      *slog.Logger
	countryCode string

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option adjusts coordinator behavior.
type Option func(*Coordinator)

// WithRecorder attaches an audit recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = recorder
	}
}

// WithNotifier attaches a notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(c *Coordinator) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithCountryCode overrides the configured country filter for slot requests.
func WithCountryCode(code string) Option {
	return func(c *Coordinator) {
		if code = strings.TrimSpace(code); code != "" {
			c.countryCode = code
		}
	}
}

// New creates a coordinator. The country filter for slot requests is taken
// from cfg.
func New(store Store, cfg *config.Config, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Coordinator{
		store:    store,
		notifier: notifications.NewService(&config.Config{}),
		logger:   logger.With(logging.String(logging.FieldComponent, "activation")),
		inflight: make(map[string]struct{}),
	}
	if cfg != nil {
		c.countryCode = strings.TrimSpace(cfg.Inbound.CountryCode)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate assigns phone numbers to the given inactive jobs. Every requested
// job must exist in the batch and be inactive, and a fresh slot inventory
// must show one free number per job; otherwise the request is rejected
// before any mutation is dispatched.
func (c *Coordinator) Activate(ctx context.Context, batchID string, jobIDs []string) (*Result, error) {
	ids := sanitizeIDs(jobIDs)
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrValidation, "activation", "activate", "no valid job IDs", nil)
	}
	if err := c.acquire(ids); err != nil {
		return nil, err
	}
	defer c.release(ids)

	logger := c.logger.With(logging.String(logging.FieldBatchID, batchID))

	details, err := c.store.BatchDetails(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(details.Jobs, ids, sim.JobStatus.CanActivate, "not inactive"); err != nil {
		return nil, err
	}

	inventory, err := c.store.PhoneNumbers(ctx, c.countryCode)
	if err != nil {
		return nil, err
	}
	available := slots.Available(inventory.Numbers, nil)
	if !slots.CanActivate(len(ids), slots.InactiveJobs(details.Jobs), available) {
		return nil, services.Wrap(services.ErrCapacity, "activation", "activate",
			fmt.Sprintf("need %d free numbers, %d available", len(ids), available), nil)
	}

	receipt, err := c.store.ActivateJobs(ctx, batchID, ids, c.countryCode)
	if err != nil {
		return nil, err
	}
	logger.Info("jobs activated",
		logging.Int("requested", len(ids)),
		logging.Int("activated", receipt.ActivatedJobs))

	if c.recorder != nil {
		if err := c.recorder.RecordActivation(ctx, batchID, receipt.Assignments); err != nil {
			logger.Warn("record activation failed", logging.Error(err))
		}
	}
	if err := c.notifier.NotifyActivationCompleted(ctx, batchID, receipt.ActivatedJobs); err != nil {
		logger.Warn("activation notification failed", logging.Error(err))
	}

	fresh, err := c.store.BatchDetails(ctx, batchID)
	if err != nil {
		logger.Warn("post-activation refresh failed", logging.Error(err))
		fresh = details
	}
	return &Result{Activated: receipt.Assignments, Details: fresh}, nil
}

// ActivateFirstN activates up to n inactive jobs from the batch, in the order
// the backend lists them.
func (c *Coordinator) ActivateFirstN(ctx context.Context, batchID string, n int) (*Result, error) {
	if n <= 0 {
		return nil, services.Wrap(services.ErrValidation, "activation", "activate", "count must be positive", nil)
	}
	details, err := c.store.BatchDetails(ctx, batchID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, n)
	for _, job := range details.Jobs {
		if len(ids) == n {
			break
		}
		if job.Status.CanActivate() && strings.TrimSpace(job.JobID) != "" {
			ids = append(ids, job.JobID)
		}
	}
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrValidation, "activation", "activate", "no valid job IDs", nil)
	}
	return c.Activate(ctx, batchID, ids)
}

// Deactivate releases the numbers held by the given jobs. A job with a call
// underway keeps its number; requesting it is rejected before dispatch.
func (c *Coordinator) Deactivate(ctx context.Context, batchID string, jobIDs []string) (*Result, error) {
	ids := sanitizeIDs(jobIDs)
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrValidation, "activation", "deactivate", "no valid job IDs", nil)
	}
	if err := c.acquire(ids); err != nil {
		return nil, err
	}
	defer c.release(ids)

	logger := c.logger.With(logging.String(logging.FieldBatchID, batchID))

	details, err := c.store.BatchDetails(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(details.Jobs, ids, sim.JobStatus.CanDeactivate, "not active"); err != nil {
		return nil, err
	}

	receipt, err := c.store.DeactivateJobs(ctx, batchID, ids)
	if err != nil {
		return nil, err
	}
	released := len(receipt.ReleasedJobs)
	logger.Info("jobs deactivated", logging.Int("released", released))

	if c.recorder != nil {
		if err := c.recorder.RecordDeactivation(ctx, batchID, ids); err != nil {
			logger.Warn("record deactivation failed", logging.Error(err))
		}
	}
	if err := c.notifier.NotifyDeactivationCompleted(ctx, batchID, released); err != nil {
		logger.Warn("deactivation notification failed", logging.Error(err))
	}

	fresh, err := c.store.BatchDetails(ctx, batchID)
	if err != nil {
		logger.Warn("post-deactivation refresh failed", logging.Error(err))
		fresh = details
	}
	return &Result{Released: released, Details: fresh}, nil
}

// Retry creates a fresh job from a failed one and returns the new job id.
// Retries for the same job are serialized through the in-flight set.
func (c *Coordinator) Retry(ctx context.Context, jobID string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", services.Wrap(services.ErrValidation, "activation", "retry", "no valid job IDs", nil)
	}
	if err := c.acquire([]string{jobID}); err != nil {
		return "", err
	}
	defer c.release([]string{jobID})

	job, err := c.store.JobStatus(ctx, jobID)
	if err != nil {
		return "", err
	}
	if !job.Status.CanRetry() {
		return "", services.Wrap(services.ErrStateConflict, "activation", "retry",
			fmt.Sprintf("job %s is %s, only failed jobs can be retried", jobID, job.Status), nil)
	}

	newID, err := c.store.RetryJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	c.logger.Info("retry queued",
		logging.String(logging.FieldJobID, jobID),
		logging.String("new_job_id", newID))

	if c.recorder != nil {
		if err := c.recorder.RecordRetry(ctx, jobID, newID); err != nil {
			c.logger.Warn("record retry failed", logging.Error(err))
		}
	}
	if err := c.notifier.NotifyRetryQueued(ctx, jobID, newID); err != nil {
		c.logger.Warn("retry notification failed", logging.Error(err))
	}
	return newID, nil
}

func (c *Coordinator) acquire(ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if _, busy := c.inflight[id]; busy {
			return services.Wrap(services.ErrStateConflict, "activation", "acquire",
				fmt.Sprintf("job %s already has an operation in flight", id), nil)
		}
	}
	for _, id := range ids {
		c.inflight[id] = struct{}{}
	}
	return nil
}

func (c *Coordinator) release(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.inflight, id)
	}
}

func sanitizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requireStatus(jobs []sim.Job, ids []string, allowed func(sim.JobStatus) bool, reason string) error {
	byID := make(map[string]sim.Job, len(jobs))
	for _, job := range jobs {
		byID[job.JobID] = job
	}
	for _, id := range ids {
		job, ok := byID[id]
		if !ok {
			return services.Wrap(services.ErrValidation, "activation", "check jobs",
				fmt.Sprintf("job %s not found in batch", id), nil)
		}
		if !allowed(job.Status) {
			return services.Wrap(services.ErrStateConflict, "activation", "check jobs",
				fmt.Sprintf("job %s is %s (%s)", id, job.Status, reason), nil)
		}
	}
	return nil
}
