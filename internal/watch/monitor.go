package watch

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"simwatch/internal/batchview"
	"simwatch/internal/config"
	"simwatch/internal/logging"
	"simwatch/internal/services/voiceapi"
	"simwatch/internal/sim"
)

// Store is the slice of the backend client a monitor needs.
type Store interface {
	BatchDetails(ctx context.Context, batchID string) (*voiceapi.BatchDetails, error)
	BatchAnalysis(ctx context.Context, batchID string) (*voiceapi.BatchAnalysis, error)
	PhoneNumbers(ctx context.Context, countryCode string) (*voiceapi.NumberInventory, error)
}

// Snapshot is one complete fetch round over a batch.
type Snapshot struct {
	View      *batchview.View
	Numbers   []sim.PhoneNumber
	FetchedAt time.Time
}

// Monitor refreshes a batch snapshot on a fixed cadence.
type Monitor struct {
	store       Store
	logger      *slog.Logger
	batchID     string
	countryCode string
	interval    time.Duration

	mu       sync.RWMutex
	snapshot Snapshot
	fresh    bool
}

// Option adjusts monitor behavior.
type Option func(*Monitor)

// WithInterval overrides the refresh cadence.
func WithInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// New creates a monitor for batchID with cadence taken from cfg.
func New(store Store, cfg *config.Config, logger *slog.Logger, batchID string, opts ...Option) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Monitor{
		store:    store,
		logger:   logger.With(logging.String(logging.FieldComponent, "watch"), logging.String(logging.FieldBatchID, batchID)),
		batchID:  batchID,
		interval: 30 * time.Second,
	}
	if cfg != nil {
		if cfg.Watch.RefreshIntervalSeconds > 0 {
			m.interval = time.Duration(cfg.Watch.RefreshIntervalSeconds) * time.Second
		}
		m.countryCode = strings.TrimSpace(cfg.Inbound.CountryCode)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh fetches batch details, analysis, and the number inventory, then
// swaps the stored snapshot in one step. A failed analysis fetch degrades to
// a view without results; failed details or inventory fetches leave the
// previous snapshot in place and return the error.
func (m *Monitor) Refresh(ctx context.Context) (Snapshot, error) {
	details, err := m.store.BatchDetails(ctx, m.batchID)
	if err != nil {
		return Snapshot{}, err
	}
	analysis, err := m.store.BatchAnalysis(ctx, m.batchID)
	if err != nil {
		m.logger.Warn("analysis fetch failed, rendering without results", logging.Error(err))
		analysis = nil
	}
	inventory, err := m.store.PhoneNumbers(ctx, m.countryCode)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		View:      batchview.Merge(details, analysis),
		Numbers:   inventory.Numbers,
		FetchedAt: time.Now(),
	}

	m.mu.Lock()
	m.snapshot = snapshot
	m.fresh = true
	m.mu.Unlock()
	return snapshot, nil
}

// Snapshot returns the last complete snapshot and whether one exists yet.
func (m *Monitor) Snapshot() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot, m.fresh
}

// Run refreshes immediately, then on every interval tick until ctx is
// canceled. onUpdate is invoked after each successful refresh; fetch errors
// are logged and the loop keeps going.
func (m *Monitor) Run(ctx context.Context, onUpdate func(Snapshot)) error {
	refresh := func() {
		snapshot, err := m.Refresh(ctx)
		if err != nil {
			if ctx.Err() == nil {
				m.logger.Warn("refresh failed, will retry", logging.Error(err))
			}
			return
		}
		if onUpdate != nil {
			onUpdate(snapshot)
		}
	}

	refresh()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			refresh()
		}
	}
}
