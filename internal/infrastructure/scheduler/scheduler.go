// Package scheduler runs the periodic ERP batch jobs (invoice polling and
// stock synchronization) on a single worker, so two runs never overlap.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/focco-sync/internal/infrastructure/logger"
	"github.com/erp/focco-sync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds scheduler configuration
type Config struct {
	Enabled     bool
	JobTimeout  time.Duration
	HistorySize int
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		JobTimeout:  10 * time.Minute,
		HistorySize: 50,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("%w: history size must be positive", ErrInvalidConfig)
	}
	return nil
}

type request struct {
	job     string
	trigger Trigger
}

// Scheduler runs registered jobs on their interval or on demand
type Scheduler struct {
	config  Config
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time

	jobs    map[string]Job
	queue   chan request
	pending map[string]bool
	history history

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance. metrics may be nil.
func NewScheduler(config Config, metrics *Metrics, log *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		config:  config,
		logger:  log.Named("scheduler"),
		metrics: metrics,
		now:     time.Now,
		jobs:    make(map[string]Job),
		pending: make(map[string]bool),
		history: history{size: config.HistorySize},
	}, nil
}

// Register adds a job. It must be called before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("%w: job needs a name and a run function", ErrInvalidConfig)
	}
	if job.Interval < 0 {
		return fmt.Errorf("%w: job %s has a negative interval", ErrInvalidConfig, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return fmt.Errorf("%w: cannot register %s while running", ErrInvalidConfig, job.Name)
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("%w: job %s registered twice", ErrInvalidConfig, job.Name)
	}
	s.jobs[job.Name] = job
	return nil
}

// Jobs returns the registered job names, sorted
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobNamesLocked()
}

// Start starts the worker and one ticker per periodic job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue = make(chan request, len(s.jobs))
	s.pending = make(map[string]bool)
	s.isRunning = true

	s.wg.Add(1)
	go s.worker(ctx)

	for _, job := range s.jobs {
		if job.Interval == 0 {
			continue
		}
		s.wg.Add(1)
		go s.tick(ctx, job)
	}

	s.logger.Info("Scheduler started",
		zap.Strings("jobs", s.jobNamesLocked()),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

func (s *Scheduler) jobNamesLocked() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stop cancels the running job and waits for the goroutines to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether Start succeeded and Stop was not called
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Trigger queues an immediate run of the named job
func (s *Scheduler) Trigger(name string) error {
	return s.enqueue(name, TriggerManual)
}

func (s *Scheduler) enqueue(name string, trigger Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	if s.pending[name] {
		return ErrJobAlreadyQueued
	}
	// the queue holds one slot per job so this never blocks
	s.pending[name] = true
	s.queue <- request{job: name, trigger: trigger}
	return nil
}

// History returns the recorded runs, newest first
func (s *Scheduler) History() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.newestFirst()
}

// LastRun returns the most recent run of the named job
func (s *Scheduler) LastRun(name string) (Run, bool) {
	for _, r := range s.History() {
		if r.Job == name {
			return r, true
		}
	}
	return Run{}, false
}

func (s *Scheduler) tick(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.enqueue(job.Name, TriggerSchedule); err != nil {
				s.logger.Debug("Skipping scheduled run",
					zap.String("job", job.Name),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.queue:
			s.mu.Lock()
			job := s.jobs[req.job]
			delete(s.pending, req.job)
			s.mu.Unlock()

			s.execute(ctx, job, req.trigger)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job, trigger Trigger) {
	run := Run{
		ID:        uuid.New(),
		Job:       job.Name,
		Trigger:   trigger,
		StartedAt: s.now(),
	}

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	jobCtx = logger.WithJob(jobCtx, job.Name)
	jobCtx, span := telemetry.StartSpan(jobCtx, "scheduler."+job.Name,
		telemetry.AttrJob.String(job.Name),
	)
	defer span.End()

	log := logger.For(jobCtx, s.logger)
	log.Info("Job started", zap.String("trigger", string(trigger)))

	outcomes, err := s.runJob(jobCtx, job)

	run.FinishedAt = s.now()
	run.Outcomes = outcomes
	run.Status = statusOf(outcomes, err)
	if err != nil {
		run.Error = err.Error()
		telemetry.RecordError(span, err)
	}
	span.SetAttributes(
		telemetry.AttrBatchFailed.Int(outcomes["failed"]),
	)

	s.mu.Lock()
	s.history.add(run)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.observe(run)
	}

	fields := []zap.Field{
		zap.String("status", string(run.Status)),
		zap.Duration("duration", run.Duration()),
		zap.Any("outcomes", outcomes),
	}
	switch run.Status {
	case RunStatusFailed:
		log.Error("Job failed", append(fields, zap.Error(err))...)
	case RunStatusPartial:
		log.Warn("Job finished with failures", fields...)
	default:
		log.Info("Job completed", fields...)
	}
}

// runJob turns a panic inside the job into a failed run
func (s *Scheduler) runJob(ctx context.Context, job Job) (outcomes map[string]int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}
