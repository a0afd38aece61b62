package download

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/elvisgraho/local-tools/internal/job/id"
)

// ErrShuttingDown is returned by Start once Shutdown has begun.
var ErrShuttingDown = errors.New("download manager is shutting down")

// cancelGrace bounds how long Shutdown waits for workers after cancelling them.
const cancelGrace = 5 * time.Second

// TaskRunner executes a task to completion.
type TaskRunner interface {
	Run(ctx context.Context, t Task, runID string)
}

// handle tracks one running worker goroutine.
type handle struct {
	runID   string
	started time.Time
	done    chan struct{}
}

// Manager owns the background download goroutines. Runs for the same job id
// are serialized; a new run waits for the previous one to exit.
// Per-job cancellation is not offered; Shutdown joins everything.
type Manager struct {
	runner TaskRunner
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running map[string]*handle
	closed  bool
}

// NewManager creates a Manager whose workers run under a context detached
// from any request.
func NewManager(runner TaskRunner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		runner:  runner,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]*handle),
	}
}

// Start spawns a worker for t and returns its run id.
func (m *Manager) Start(t Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrShuttingDown
	}

	h := &handle{
		runID:   id.Generate(),
		started: time.Now(),
		done:    make(chan struct{}),
	}
	prev := m.running[t.JobID]
	m.running[t.JobID] = h

	m.wg.Add(1)
	go m.run(t, h, prev)

	return h.runID, nil
}

func (m *Manager) run(t Task, h *handle, prev *handle) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		if m.running[t.JobID] == h {
			delete(m.running, t.JobID)
		}
		m.mu.Unlock()
		close(h.done)

		m.logger.Debug("download worker exited",
			slog.String("video_id", t.JobID),
			slog.String("run_id", h.runID),
			slog.Duration("elapsed", time.Since(h.started)),
		)
	}()

	if prev != nil {
		select {
		case <-prev.done:
		case <-m.ctx.Done():
			return
		}
	}

	m.runner.Run(m.ctx, t, h.runID)
}

// Active reports whether a worker for jobID is running or queued.
func (m *Manager) Active(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[jobID]
	return ok
}

// Done returns a channel closed when the latest run for jobID exits.
// For unknown ids the channel is already closed.
func (m *Manager) Done(jobID string) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.running[jobID]; ok {
		return h.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// Shutdown stops accepting work and waits for running workers. When ctx
// expires first, workers are cancelled and given a short grace period.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	pending := len(m.running)
	m.mu.Unlock()

	m.logger.Info("waiting for downloads to finish",
		slog.Int("pending", pending),
	)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
	}

	m.logger.Warn("shutdown deadline reached, cancelling downloads")
	m.cancel()

	select {
	case <-done:
	case <-time.After(cancelGrace):
		m.logger.Error("download workers did not exit after cancellation")
	}
	return ctx.Err()
}
