// Package schedule keeps one daily cron trigger per user with a push time
// and runs the digest pipeline when a trigger fires.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/observability/metrics"
	"feed-digest/internal/repository"
	"feed-digest/internal/usecase/pipeline"
)

// DefaultTimezone is the reference timezone push times are interpreted in.
const DefaultTimezone = "Asia/Shanghai"

// Runner executes one digest run for a user.
type Runner interface {
	Run(ctx context.Context, userID int64) (*pipeline.RunResult, error)
}

// Config controls trigger evaluation.
type Config struct {
	// Location is the timezone push times are evaluated in.
	Location *time.Location
	// RunTimeout bounds a single scheduled run.
	RunTimeout time.Duration
}

// Trigger describes one registered trigger.
type Trigger struct {
	Key      string    `json:"key"`
	UserID   int64     `json:"userId"`
	PushTime string    `json:"pushTime"`
	Next     time.Time `json:"next"`
}

type registration struct {
	id       cron.EntryID
	pushTime string
	sched    cron.Schedule
}

// Scheduler owns the trigger registry. It is safe for concurrent use.
type Scheduler struct {
	users  repository.UserRepository
	runner Runner
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger

	// writeMu serializes push-time writes with their registry changes so
	// users.push_time and the live trigger never disagree.
	writeMu sync.Mutex

	mu      sync.Mutex
	entries map[int64]registration

	startMu sync.Mutex
	started bool
}

// TriggerKey names the trigger of userID.
func TriggerKey(userID int64) string {
	return fmt.Sprintf("user-%d-push", userID)
}

// New creates a scheduler. The cron loop does not run until EnsureStarted.
func New(users repository.UserRepository, runner Runner, cfg Config) *Scheduler {
	if cfg.Location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			loc = time.UTC
		}
		cfg.Location = loc
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}
	logger := slog.Default().With(slog.String("component", "scheduler"))
	cl := cronLogger{logger: logger}
	return &Scheduler{
		users:  users,
		runner: runner,
		cfg:    cfg,
		logger: logger,
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		entries: make(map[int64]registration),
	}
}

// EnsureStarted loads all persisted triggers and starts the cron loop.
// Subsequent calls are no-ops. If loading fails the scheduler stays
// unstarted and the next call retries.
func (s *Scheduler) EnsureStarted(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return nil
	}
	n, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("scheduler started",
		slog.String("timezone", s.cfg.Location.String()),
		slog.Int("triggers", n))
	return nil
}

// LoadAll reconciles the registry with every persisted push time and
// returns the number of registered triggers. Users whose stored push time
// is malformed are skipped and logged.
func (s *Scheduler) LoadAll(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	users, err := s.users.ListWithPushTime(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users with push time: %w", err)
	}

	want := make(map[int64]struct{}, len(users))
	for _, u := range users {
		if u.PushTime == nil {
			continue
		}
		if err := s.schedule(u.ID, *u.PushTime); err != nil {
			s.logger.Warn("skipping stored push time",
				slog.Int64("user_id", u.ID),
				slog.String("push_time", *u.PushTime),
				slog.Any("error", err))
			continue
		}
		want[u.ID] = struct{}{}
	}

	s.mu.Lock()
	for userID, reg := range s.entries {
		if _, ok := want[userID]; !ok {
			s.cron.Remove(reg.id)
			delete(s.entries, userID)
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.SetScheduledTriggers(n)
	return n, nil
}

// Upsert validates pushTime, persists it, and replaces the user's trigger.
// On any error the previously registered trigger is left unchanged.
func (s *Scheduler) Upsert(ctx context.Context, userID int64, pushTime string) error {
	if err := entity.ValidatePushTime(pushTime); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.users.UpdatePushTime(ctx, userID, &pushTime); err != nil {
		return fmt.Errorf("persist push time: %w", err)
	}
	if err := s.schedule(userID, pushTime); err != nil {
		return err
	}
	s.logger.Info("trigger scheduled",
		slog.String("key", TriggerKey(userID)),
		slog.String("push_time", pushTime))
	return nil
}

// Remove clears the persisted push time and unregisters the trigger.
func (s *Scheduler) Remove(ctx context.Context, userID int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.users.UpdatePushTime(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear push time: %w", err)
	}
	s.forget(userID)
	return nil
}

// Forget unregisters the trigger without touching storage. Used after the
// user row is already gone; it waits for an in-flight Upsert of the same
// user to finish first.
func (s *Scheduler) Forget(userID int64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.forget(userID)
}

func (s *Scheduler) forget(userID int64) {
	s.mu.Lock()
	reg, ok := s.entries[userID]
	if ok {
		s.cron.Remove(reg.id)
		delete(s.entries, userID)
	}
	n := len(s.entries)
	s.mu.Unlock()

	if ok {
		metrics.SetScheduledTriggers(n)
		s.logger.Info("trigger removed", slog.String("key", TriggerKey(userID)))
	}
}

// Triggers lists registered triggers ordered by user.
func (s *Scheduler) Triggers() []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().In(s.cfg.Location)
	out := make([]Trigger, 0, len(s.entries))
	for userID, reg := range s.entries {
		out = append(out, Trigger{
			Key:      TriggerKey(userID),
			UserID:   userID,
			PushTime: reg.pushTime,
			Next:     reg.sched.Next(now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// TriggerCount returns the number of registered triggers.
func (s *Scheduler) TriggerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Started reports whether EnsureStarted has succeeded.
func (s *Scheduler) Started() bool {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	return s.started
}

// Stop halts the cron loop and waits for running digests, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// schedule registers or replaces the trigger of userID. The new schedule is
// parsed before the old entry is removed.
func (s *Scheduler) schedule(userID int64, pushTime string) error {
	hour, minute, err := entity.ParsePushTime(pushTime)
	if err != nil {
		return err
	}
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[userID]; ok {
		s.cron.Remove(prev.id)
		delete(s.entries, userID)
	}
	id := s.cron.Schedule(sched, cron.FuncJob(func() { s.fire(userID) }))
	s.entries[userID] = registration{id: id, pushTime: pushTime, sched: sched}
	metrics.SetScheduledTriggers(len(s.entries))
	return nil
}

// fire runs one scheduled digest. Failures are logged and never
// unregister the trigger.
func (s *Scheduler) fire(userID int64) {
	logger := s.logger.With(slog.String("key", TriggerKey(userID)))
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	success := false
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduled run panicked", slog.Any("panic", r))
		}
		metrics.RecordTriggerFire(success)
		metrics.RecordRun(metrics.TriggerScheduled, success, time.Since(start))
	}()

	logger.Info("scheduled run started")
	res, err := s.runner.Run(ctx, userID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			logger.Warn("scheduled user no longer exists", slog.Any("error", err))
		} else {
			logger.Error("scheduled run failed", slog.Any("error", err))
		}
		return
	}
	success = true
	logger.Info("scheduled run finished",
		slog.Int("total_articles", res.Stats.TotalArticles),
		slog.Int("processed_articles", res.Stats.ProcessedArticles),
		slog.Bool("notified", res.Notified),
		slog.Duration("duration", time.Since(start)))
}
