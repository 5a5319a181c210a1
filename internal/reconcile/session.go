package reconcile

import (
	"context"
)

// Session is a running re-analysis poll loop started with Poller.Start.
// Progress reports arrive on the Progress channel; Wait blocks until the
// session ends. Cancel stops polling; a canceled session never mutates
// anything observed through a later session.
type Session struct {
	cancel   context.CancelFunc
	progress chan Progress
	done     chan struct{}

	result *Result
	err    error
}

// Start runs the poll loop in the background and returns immediately. The
// progress channel is buffered to the poll ceiling and closed when the
// session ends.
func (p *Poller) Start(ctx context.Context, batchID string, expectedTotal int, forceRefresh bool) *Session {
	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		cancel:   cancel,
		progress: make(chan Progress, p.maxPolls),
		done:     make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.progress)
		s.result, s.err = p.Run(runCtx, batchID, expectedTotal, forceRefresh, func(progress Progress) {
			select {
			case s.progress <- progress:
			default:
			}
		})
	}()
	return s
}

// Progress returns the channel of per-poll progress reports.
func (s *Session) Progress() <-chan Progress {
	return s.progress
}

// Cancel stops the session. Wait still returns the partial result.
func (s *Session) Cancel() {
	s.cancel()
}

// Wait blocks until the session ends and returns its result.
func (s *Session) Wait() (*Result, error) {
	<-s.done
	return s.result, s.err
}
