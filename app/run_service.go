package app

import (
	"context"
	"sync"
	"time"

	"martisim/domain/core"
	"martisim/domain/mode"
	"martisim/domain/run"
	"martisim/internal"
	apperrors "martisim/internal/errors"
	"martisim/ports"
)

// RunService executes runs in the background and tracks them in a RunRepository
type RunService struct {
	sim    *SimulationService
	repo   ports.RunRepository
	events ports.EventSink
	logger *internal.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunService creates a run service. events, typically the SSE hub, receives
// every event of every run; it may be nil.
func NewRunService(sim *SimulationService, repo ports.RunRepository, events ports.EventSink, logger *internal.Logger) *RunService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RunService{
		sim:    sim,
		repo:   repo,
		events: events,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit validates modes, registers a pending run and starts it in the
// background. The returned record carries the run ID to poll or subscribe to.
func (s *RunService) Submit(ctx context.Context, modes []mode.Mode) (*run.Record, error) {
	if err := mode.ValidateAll(modes); err != nil {
		return nil, err
	}
	if err := s.ctx.Err(); err != nil {
		return nil, apperrors.InternalError("run service is shut down")
	}

	rec := run.NewRecord(core.NewRunID(), modes)
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, apperrors.Wrap(err, "failed to register run")
	}

	s.wg.Add(1)
	go s.execute(rec.Clone())

	s.logger.Info("run %s submitted with %d modes", rec.ID, len(modes))
	return rec, nil
}

// Get returns the current state of a run
func (s *RunService) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	return s.repo.Get(ctx, id)
}

// List returns recent runs, newest first
func (s *RunService) List(ctx context.Context, limit int) ([]*run.Record, error) {
	return s.repo.List(ctx, limit)
}

// Wait blocks until every submitted run has finished or ctx is done
func (s *RunService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels running runs and waits for them to stop
func (s *RunService) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.Wait(ctx)
}

func (s *RunService) execute(rec *run.Record) {
	defer s.wg.Done()

	tracker := &progressTracker{repo: s.repo, record: rec, next: s.events, logger: s.logger}
	report, err := s.sim.WithEvents(tracker).RunModesWithID(s.ctx, rec.ID, rec.Modes)

	// The stored record is final before the terminal event goes out, so a
	// client reacting to it always reads the finished run.
	terminal := tracker.finish(report, err)
	if s.events != nil {
		s.events.Publish(terminal)
	}
}

// progressTracker mirrors run events into the stored record and forwards
// them downstream, holding back the terminal event until the record is final.
type progressTracker struct {
	mu       sync.Mutex
	repo     ports.RunRepository
	record   *run.Record
	next     ports.EventSink
	terminal *ports.RunEvent
	logger   *internal.Logger
}

// Publish implements ports.EventSink
func (t *progressTracker) Publish(event ports.RunEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if event.EventType == ports.EventRunFinished || event.EventType == ports.EventRunFailed {
		ev := event
		t.terminal = &ev
		return
	}

	// Progress events from concurrent workers may arrive out of order
	if event.Progress >= t.record.Progress {
		t.record.UpdateProgress(event.Progress, event.Mode)
		if err := t.repo.Update(context.Background(), t.record); err != nil {
			t.logger.Warn("run %s: failed to store progress: %v", t.record.ID, err)
		}
	}
	if t.next != nil {
		t.next.Publish(event)
	}
}

// finish stores the outcome and returns the terminal event to publish
func (t *progressTracker) finish(report *run.Report, err error) ports.RunEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.record.Fail(err)
		t.logger.Error("run %s failed: %v", t.record.ID, err)
	} else {
		t.record.Complete(report)
	}
	if uerr := t.repo.Update(context.Background(), t.record); uerr != nil {
		t.logger.Warn("run %s: failed to store final state: %v", t.record.ID, uerr)
	}

	if t.terminal != nil {
		return *t.terminal
	}
	ev := ports.RunEvent{
		RunID:     t.record.ID.String(),
		EventType: ports.EventRunFinished,
		Progress:  t.record.Progress,
		Timestamp: time.Now(),
	}
	if err != nil {
		ev.EventType = ports.EventRunFailed
		ev.Data = map[string]interface{}{"error": err.Error()}
	}
	return ev
}
