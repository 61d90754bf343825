package trend

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/anatolykoptev/go_career/internal/engine"
)

// Scheduled job identifiers.
const (
	JobSimilarityRecompute = "similarity_recompute"
	JobSkillStatsAggregate = "skill_stats_aggregate"
	JobDailyBatch          = "daily_batch"
)

// RunStatus reports the outcome of a manual trigger.
type RunStatus string

const (
	StatusStarted        RunStatus = "started"
	StatusAlreadyRunning RunStatus = "already_running"
)

// Scheduler fires the daily batch at a fixed hour and exposes manual
// triggers for its individual jobs. One instance per deployment; jobs
// guard themselves with a per-job non-blocking lock, so an overlapping
// trigger is skipped instead of queued.
type Scheduler struct {
	cron       *cron.Cron
	aggregator *Aggregator
	ranker     *Ranker
	loc        *time.Location

	mu      sync.Mutex
	running bool
	locks   map[string]*sync.Mutex
}

// JobInfo is one scheduled job's state for Status.
type JobInfo struct {
	ID           string    `json:"id"`
	NextFireTime time.Time `json:"next_fire_time"`
}

// SchedulerStatus is the Status snapshot.
type SchedulerStatus struct {
	Running bool      `json:"running"`
	Jobs    []JobInfo `json:"jobs"`
}

// NewScheduler wires the daily batch at hour o'clock in loc.
func NewScheduler(aggregator *Aggregator, ranker *Ranker, loc *time.Location, hour int) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		aggregator: aggregator,
		ranker:     ranker,
		loc:        loc,
		locks: map[string]*sync.Mutex{
			JobSimilarityRecompute: {},
			JobSkillStatsAggregate: {},
			JobDailyBatch:          {},
		},
	}

	spec := fmt.Sprintf("0 %d * * *", hour)
	if _, err := s.cron.AddFunc(spec, func() {
		engine.IncrScheduledFirings()
		s.runGuarded(context.Background(), JobDailyBatch)
	}); err != nil {
		return nil, fmt.Errorf("schedule daily batch: %w", err)
	}

	slog.Info("scheduler configured",
		slog.String("spec", spec),
		slog.String("timezone", loc.String()),
	)
	return s, nil
}

// Start begins firing scheduled jobs. Idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	slog.Info("scheduler started")
}

// Stop prevents future firings. A run already in flight completes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	slog.Info("scheduler stopped")
}

// Status reports whether the scheduler is firing and each cron entry's
// next fire time.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{Running: s.running}
	for _, entry := range s.cron.Entries() {
		status.Jobs = append(status.Jobs, JobInfo{
			ID:           JobDailyBatch,
			NextFireTime: entry.Next,
		})
	}
	return status
}

// RunNow triggers one job synchronously. If the same job is already
// running, returns StatusAlreadyRunning without blocking or queuing.
func (s *Scheduler) RunNow(ctx context.Context, jobID string) (RunStatus, error) {
	lock, ok := s.locks[jobID]
	if !ok {
		return "", fmt.Errorf("unknown job %q", jobID)
	}
	if !lock.TryLock() {
		engine.IncrReentrancySkips()
		slog.Info("job already running, skipping", slog.String("job", jobID))
		return StatusAlreadyRunning, nil
	}
	defer lock.Unlock()

	s.execute(ctx, jobID)
	return StatusStarted, nil
}

// runGuarded is the cron entry point: same lock discipline as RunNow,
// plus a recover barrier so a panicking job never kills the process.
func (s *Scheduler) runGuarded(ctx context.Context, jobID string) {
	lock := s.locks[jobID]
	if !lock.TryLock() {
		engine.IncrReentrancySkips()
		slog.Warn("scheduled job still running, skipping this firing", slog.String("job", jobID))
		return
	}
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduled job panicked",
				slog.String("job", jobID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	s.execute(ctx, jobID)
}

func (s *Scheduler) execute(ctx context.Context, jobID string) {
	start := time.Now()
	slog.Info("job starting", slog.String("job", jobID))

	switch jobID {
	case JobSimilarityRecompute:
		s.runSimilarity(ctx)
	case JobSkillStatsAggregate:
		s.runAggregation(ctx)
	case JobDailyBatch:
		// Similarity first so fresh scores exist before stats readers wake up.
		s.runSimilarity(ctx)
		s.runAggregation(ctx)
	}

	slog.Info("job finished",
		slog.String("job", jobID),
		slog.Duration("took", time.Since(start)),
	)
}

func (s *Scheduler) runSimilarity(ctx context.Context) {
	res, err := s.ranker.RecomputeAll(ctx)
	if err != nil {
		slog.Error("similarity recompute failed", slog.Any("error", err))
		return
	}
	slog.Info("similarity recompute done",
		slog.Int("users", res.Users),
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed),
	)
}

func (s *Scheduler) runAggregation(ctx context.Context) {
	now := time.Now().In(s.loc)
	res, err := s.aggregator.AggregateAll(ctx, now)
	if err != nil {
		slog.Error("skill stats aggregation failed", slog.Any("error", err))
		return
	}
	slog.Info("skill stats aggregation done",
		slog.Int("roles", res.RolesProcessed),
		slog.Int("created", res.Created),
		slog.Int("deleted", res.Deleted),
		slog.Int("failed", res.Failed),
	)
}
