package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"cfb-picks/logging"
)

// Job is one unit of periodic work
type Job func(ctx context.Context) error

// Scheduler runs a job once at start and then on a fixed interval until
// stopped. A tick that fires while the previous run is still going is dropped.
type Scheduler struct {
	name     string
	job      Job
	interval time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	busy    atomic.Bool

	runs    atomic.Int64
	skipped atomic.Int64
}

// NewScheduler creates a scheduler; it does nothing until Start
func NewScheduler(name string, job Job, interval time.Duration) *Scheduler {
	return &Scheduler{
		name:     name,
		job:      job,
		interval: interval,
		logger:   logging.WithPrefix("Scheduler").With("job", name),
	}
}

// Start launches the background loop. The first run begins immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn("Already running")
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.logger.Infof("Starting with interval %v", s.interval)
	s.wg.Add(1)
	go s.loop(loopCtx)
	return nil
}

// Stop halts the loop and waits for an in-flight run to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Stopped")
}

// Running reports whether the loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Runs returns how many times the job has been started
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

// Skipped returns how many ticks were dropped because a run was in progress
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.trigger(ctx)
	for {
		select {
		case <-ticker.C:
			s.trigger(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Debug("Previous run still in progress, skipping tick")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)
		s.run(ctx)
	}()
}

func (s *Scheduler) run(ctx context.Context) {
	s.runs.Add(1)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Run panicked: %v", r)
		}
	}()

	if err := s.job(ctx); err != nil {
		if ctx.Err() != nil {
			s.logger.Infof("Run interrupted by shutdown: %v", err)
			return
		}
		s.logger.Errorf("Run failed after %v: %v", time.Since(start), err)
		return
	}
	s.logger.Debugf("Run completed in %v", time.Since(start))
}
