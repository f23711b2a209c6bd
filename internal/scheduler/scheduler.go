// Package scheduler runs sync tasks on their cron schedules.
//
// Every registered task fires once immediately and then on each cron
// boundary. Firings of the same task never overlap: a trigger that arrives
// while the previous firing is still running is skipped. Firings of
// different tasks run concurrently, bounded by a worker pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/core/task"
)

// ErrStopped is returned when tasks are registered or reloaded after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Runner executes the work behind a task. *gitsync.Service implements it.
type Runner interface {
	Initialize(ctx context.Context, def task.Definition) error
	Fire(ctx context.Context, def task.Definition) history.Run
}

// Entry describes a registered task and its trigger times.
type Entry struct {
	Task task.Definition
	Next time.Time
	Prev time.Time
}

type registration struct {
	def task.Definition
	id  cron.EntryID
}

// Scheduler owns the cron engine and the per-task registrations.
type Scheduler struct {
	runner Runner
	cron   *cron.Cron
	pool   *WorkerPool
	log    zerolog.Logger
	cronLg cron.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	tasks   map[string]registration
	jobs    map[string]cron.Job
	started bool

	running atomic.Int64
}

// New creates a scheduler that runs at most workers firings at once.
func New(runner Runner, workers int, log zerolog.Logger) *Scheduler {
	log = log.With().Str("cmp", "scheduler").Logger()
	cronLg := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner: runner,
		cron:   cron.New(cron.WithLogger(cronLg)),
		pool:   NewWorkerPool(workers),
		log:    log,
		cronLg: cronLg,
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]registration),
		jobs:   make(map[string]cron.Job),
	}
}

// Start initializes every task and, only if all succeed, registers them and
// starts the cron engine. Initialization runs in parallel on the worker pool
// size; the first failure cancels the tasks not yet started and is returned.
func (s *Scheduler) Start(ctx context.Context, defs []task.Definition) error {
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if _, dup := seen[def.Name]; dup {
			return fmt.Errorf("duplicate task name %q", def.Name)
		}
		seen[def.Name] = struct{}{}

		if _, err := task.ParseCron(def.Cron); err != nil {
			return fmt.Errorf("task %s: %w", def.Name, err)
		}
	}

	if err := s.initializeAll(ctx, defs); err != nil {
		return err
	}

	for _, def := range defs {
		if err := s.Register(def); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info().Int("tasks", len(defs)).Int("workers", s.pool.Size()).Msg("scheduler started")
	return nil
}

func (s *Scheduler) initializeAll(ctx context.Context, defs []task.Definition) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pool.Size())

	for _, def := range defs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// A running init step is never killed half way; cancellation only
			// prevents the remaining tasks from starting.
			return s.runner.Initialize(context.WithoutCancel(gctx), def)
		})
	}

	return g.Wait()
}

// Register adds or replaces the trigger for def and fires it once
// immediately. Registering the same name again replaces the schedule and
// definition but keeps the non-overlap guarantee across the swap.
func (s *Scheduler) Register(def task.Definition) error {
	schedule, err := task.ParseCron(def.Cron)
	if err != nil {
		return fmt.Errorf("task %s: %w", def.Name, err)
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return ErrStopped
	}
	if prev, ok := s.tasks[def.Name]; ok {
		s.cron.Remove(prev.id)
	}
	job := s.jobFor(def.Name)
	id := s.cron.Schedule(schedule, job)
	s.tasks[def.Name] = registration{def: def, id: id}
	s.mu.Unlock()

	s.log.Info().Str("task", def.Name).Str("cron", def.Cron).Msg("task registered")

	go job.Run()
	return nil
}

// Unregister removes the trigger for name. A firing already in progress is
// allowed to finish. It reports whether name was registered.
func (s *Scheduler) Unregister(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.tasks[name]
	if !ok {
		return false
	}
	s.cron.Remove(reg.id)
	delete(s.tasks, name)

	s.log.Info().Str("task", name).Msg("task unregistered")
	return true
}

// Reload brings the registrations in line with defs. Removed tasks are
// unregistered, new or changed tasks are initialized and registered, and
// unchanged tasks keep their trigger. A task whose initialization fails
// keeps its previous registration, if any; the failures are returned joined.
// Initialization counts towards Running. Once Stop is called no further task
// is initialized and ErrStopped is returned.
func (s *Scheduler) Reload(ctx context.Context, defs []task.Definition) error {
	if s.ctx.Err() != nil {
		return ErrStopped
	}

	want := make(map[string]task.Definition, len(defs))
	for _, def := range defs {
		want[def.Name] = def
	}

	for _, current := range s.Tasks() {
		if _, ok := want[current.Name]; !ok {
			s.Unregister(current.Name)
		}
	}

	var errs []error
	for _, def := range defs {
		if current, ok := s.lookup(def.Name); ok && current.Equal(def) {
			continue
		}

		done, ok := s.track()
		if !ok {
			errs = append(errs, ErrStopped)
			break
		}
		err := s.runner.Initialize(context.WithoutCancel(ctx), def)
		done()
		if err != nil {
			s.log.Error().Err(err).Str("task", def.Name).Msg("reload: initialization failed")
			errs = append(errs, err)
			continue
		}
		if err := s.Register(def); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Stop halts the cron engine and drops firings still waiting for a worker.
// It does not wait for firings in progress; callers poll Running until it
// reaches zero before exiting.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.cancel()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	s.log.Info().Int64("running", s.running.Load()).Msg("scheduler stopped")
}

// Running returns the number of firings and reload initializations
// currently executing.
func (s *Scheduler) Running() int64 {
	return s.running.Load()
}

// Started reports whether Start succeeded and Stop has not been called.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Tasks returns the registered definitions sorted by name.
func (s *Scheduler) Tasks() []task.Definition {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs := make([]task.Definition, 0, len(s.tasks))
	for _, reg := range s.tasks {
		defs = append(defs, reg.def)
	}
	slices.SortFunc(defs, func(a, b task.Definition) int {
		return strings.Compare(a.Name, b.Name)
	})
	return defs
}

// Entries returns the registered tasks with their next and previous
// trigger times, sorted by name.
func (s *Scheduler) Entries() []Entry {
	defs := s.Tasks()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(defs))
	for _, def := range defs {
		reg, ok := s.tasks[def.Name]
		if !ok {
			continue
		}
		e := s.cron.Entry(reg.id)
		entries = append(entries, Entry{Task: def, Next: e.Next, Prev: e.Prev})
	}
	return entries
}

func (s *Scheduler) lookup(name string) (task.Definition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.tasks[name]
	return reg.def, ok
}

// jobFor returns the job for name, creating it on first use. The job is
// kept for the life of the scheduler so that its skip-if-running guard
// spans re-registrations. Must be called with s.mu held.
func (s *Scheduler) jobFor(name string) cron.Job {
	if job, ok := s.jobs[name]; ok {
		return job
	}

	// Recover sits inside the skip guard so a panicking firing still
	// releases it.
	job := cron.NewChain(
		cron.SkipIfStillRunning(s.cronLg),
		cron.Recover(s.cronLg),
	).Then(cron.FuncJob(func() { s.fire(name) }))

	s.jobs[name] = job
	return job
}

func (s *Scheduler) fire(name string) {
	err := s.pool.RunContext(s.ctx, func() {
		done, ok := s.track()
		if !ok {
			return
		}
		defer done()

		def, ok := s.lookup(name)
		if !ok {
			return
		}

		s.runner.Fire(context.WithoutCancel(s.ctx), def)
	})
	if err != nil {
		s.log.Debug().Str("task", name).Msg("scheduler stopped, firing dropped")
	}
}

// track counts a unit of git work in Running. The count is taken before the
// stop check, so once Stop has cancelled the context, work either shows in
// Running or never starts.
func (s *Scheduler) track() (done func(), ok bool) {
	s.running.Add(1)
	if s.ctx.Err() != nil {
		s.running.Add(-1)
		return nil, false
	}
	return func() { s.running.Add(-1) }, true
}
