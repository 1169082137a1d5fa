// Package scheduler runs the periodic maintenance jobs of the platform on
// cron schedules. A job is identified by a key; a run is skipped while the
// previous run of the same key is still in flight.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/allisson/trustlog/internal/metrics"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

type entry struct {
	key     string
	spec    string
	job     Job
	entryID cron.EntryID
}

// Scheduler dispatches registered jobs from a cron clock.
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	pipeline metrics.PipelineMetrics
	timeout  time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	running map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Add registers a job under key with a standard five-field cron spec or a
// descriptor such as "@daily" or "@every 1m".
func (s *Scheduler) Add(key, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		return fmt.Errorf("job %q already registered", key)
	}

	id, err := s.cron.AddFunc(spec, func() { s.Trigger(key) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", spec, key, err)
	}

	s.entries[key] = &entry{key: key, spec: spec, job: job, entryID: id}
	return nil
}

// Keys returns the registered job keys.
func (s *Scheduler) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

// Next returns the next activation time of a job, or the zero time when the
// scheduler is not started or the key is unknown.
func (s *Scheduler) Next(key string) time.Time {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(e.entryID).Next
}

// Trigger starts a run of the job in the background. It returns false when
// the key is unknown, the scheduler is stopped or a run is still in flight.
func (s *Scheduler) Trigger(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	if s.running[key] {
		s.mu.Unlock()
		s.logger.Warn("previous run still in flight, skipping", slog.String("job", key))
		s.pipeline.RecordEvent(s.ctx, "scheduler", "skipped", 1)
		return false
	}
	s.running[key] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(e)
	return true
}

func (s *Scheduler) run(e *entry) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.running, e.key)
		s.mu.Unlock()
	}()

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.invoke(ctx, e)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("job failed",
			slog.String("job", e.key),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		s.pipeline.RecordEvent(s.ctx, "scheduler", "failed", 1)
		return
	}

	s.logger.Debug("job completed", slog.String("job", e.key), slog.Duration("duration", duration))
	s.pipeline.RecordEvent(s.ctx, "scheduler", "completed", 1)
}

func (s *Scheduler) invoke(ctx context.Context, e *entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panicked: %v", e.key, r)
		}
	}()
	return e.job(ctx)
}

// Start begins dispatching. Stopping the parent context stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.Keys())))

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.ctx.Done():
		}
	}()
}

// Stop halts the cron clock, cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds every run.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// WithLocation evaluates schedules in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.cron = cron.New(cron.WithLocation(loc))
	}
}

// NewScheduler creates a stopped scheduler evaluating schedules in UTC.
func NewScheduler(logger *slog.Logger, pipeline metrics.PipelineMetrics, opts ...Option) *Scheduler {
	if pipeline == nil {
		pipeline = metrics.NewNoOpPipelineMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		logger:   logger.With(slog.String("component", "scheduler")),
		pipeline: pipeline,
		entries:  make(map[string]*entry),
		running:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
