package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/internal/metrics"
	"github.com/OldStager01/fleet-health/internal/orchestrator"
	"github.com/OldStager01/fleet-health/pkg/config"
	"github.com/OldStager01/fleet-health/pkg/models"
)

type Task string

const (
	TaskAggregation Task = "aggregation"
	TaskBaseline    Task = "baseline"
	TaskTrend       Task = "trend"
)

// Skip reason strings.
const (
	ReasonAlreadyRunning   = "already_running"
	ReasonInsufficientData = "insufficient_data"
)

// Scheduler drives the periodic analytics tasks and the staleness sweep. At
// most one run per (server, task) pair is in flight at a time: periodic runs
// skip a busy pair, manual rebuilds cancel the older run and take its place.
type Scheduler struct {
	config config.SchedulerConfig
	orch   *orchestrator.Orchestrator

	running map[string]*run
	mu      sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// run identifies one in-flight task so a finished run only releases the slot
// it still owns.
type run struct {
	cancel context.CancelFunc
}

func New(cfg config.SchedulerConfig, orch *orchestrator.Orchestrator) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:  cfg,
		orch:    orch,
		running: make(map[string]*run),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Scheduler) Start() {
	logger.Info("Scheduler starting")

	s.wg.Add(4)
	go s.loop(s.config.StaleSweepInterval, s.sweepStale)
	go s.loop(s.config.TrendInterval, func() { s.runForAll(TaskTrend) })
	go s.loop(s.config.BaselineInterval, func() { s.runForAll(TaskBaseline) })
	go s.loop(s.config.AggregationInterval, func() { s.runForAll(TaskAggregation) })
}

func (s *Scheduler) Stop() {
	logger.Info("Scheduler stopping")
	s.cancel()
	s.wg.Wait()
	logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(interval time.Duration, fn func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (s *Scheduler) sweepStale() {
	ctx, cancel := context.WithTimeout(s.ctx, s.config.TaskTimeout)
	defer cancel()
	s.orch.CheckStaleness(ctx)
}

// runForAll dispatches one task for every server that reported recently.
func (s *Scheduler) runForAll(task Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.config.TaskTimeout)
	servers, err := s.orch.Samples().ListServers(ctx, time.Now().UTC().Add(-s.config.ServerLookback))
	cancel()
	if err != nil {
		logger.Errorf("Scheduler failed to list servers for %s run: %v", task, err)
		return
	}

	for _, serverID := range servers {
		s.dispatch(serverID, task)
	}
}

// dispatch starts an async run unless the pair is already busy.
func (s *Scheduler) dispatch(serverID string, task Task) {
	key := string(task) + "/" + serverID

	s.mu.Lock()
	if _, busy := s.running[key]; busy {
		s.mu.Unlock()
		s.orch.Publisher().TaskSkipped(serverID, string(task), ReasonAlreadyRunning)
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.config.TaskTimeout)
	r := &run{cancel: cancel}
	s.running[key] = r
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(key, r)
		s.execute(ctx, serverID, task)
	}()
}

// RebuildAggregation recomputes one server-day on demand, cancelling any
// in-flight aggregation for the server first.
func (s *Scheduler) RebuildAggregation(ctx context.Context, serverID string, date time.Time) (*models.DailyAggregate, error) {
	runCtx, cancel := s.preempt(ctx, serverID, TaskAggregation)
	defer cancel()
	return s.orch.RunAggregation(runCtx, serverID, date)
}

// RebuildBaseline recomputes a server's baseline on demand.
func (s *Scheduler) RebuildBaseline(ctx context.Context, serverID string) (*models.Baseline, error) {
	runCtx, cancel := s.preempt(ctx, serverID, TaskBaseline)
	defer cancel()
	return s.orch.RunBaseline(runCtx, serverID)
}

// RebuildTrend recomputes a server's trend analysis on demand.
func (s *Scheduler) RebuildTrend(ctx context.Context, serverID string) (*models.TrendAnalysis, error) {
	runCtx, cancel := s.preempt(ctx, serverID, TaskTrend)
	defer cancel()
	return s.orch.RunTrend(runCtx, serverID)
}

// preempt cancels any in-flight run for the pair and claims the slot for a
// synchronous run under the caller's context.
func (s *Scheduler) preempt(ctx context.Context, serverID string, task Task) (context.Context, context.CancelFunc) {
	key := string(task) + "/" + serverID

	runCtx, cancel := context.WithTimeout(ctx, s.config.TaskTimeout)
	r := &run{cancel: cancel}

	s.mu.Lock()
	if old, busy := s.running[key]; busy {
		old.cancel()
		logger.WithServer(serverID).Infof("Cancelled in-flight %s run for manual rebuild", task)
	}
	s.running[key] = r
	s.mu.Unlock()

	return runCtx, func() {
		s.release(key, r)
	}
}

// release frees the slot only if this run still owns it; a preempting rebuild
// may have replaced it already.
func (s *Scheduler) release(key string, r *run) {
	r.cancel()
	s.mu.Lock()
	if current, ok := s.running[key]; ok && current == r {
		delete(s.running, key)
	}
	s.mu.Unlock()
}

func (s *Scheduler) execute(ctx context.Context, serverID string, task Task) {
	var err error
	switch task {
	case TaskAggregation:
		_, err = s.orch.RunAggregation(ctx, serverID, time.Now().UTC().AddDate(0, 0, -1))
	case TaskBaseline:
		_, err = s.orch.RunBaseline(ctx, serverID)
	case TaskTrend:
		_, err = s.orch.RunTrend(ctx, serverID)
	}

	switch {
	case err == nil:
		metrics.Get().IncTask(string(task), "ok")
	case models.IsInsufficientData(err):
		metrics.Get().IncTask(string(task), "skipped")
		s.orch.Publisher().TaskSkipped(serverID, string(task), ReasonInsufficientData)
	case errors.Is(err, context.Canceled):
		// Preempted by a manual rebuild; the rebuild reports its own outcome.
	default:
		metrics.Get().IncTask(string(task), "failed")
		s.orch.Publisher().TaskFailed(serverID, string(task), err)
	}
}
