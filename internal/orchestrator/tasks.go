package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/OldStager01/fleet-health/internal/alerting"
	"github.com/OldStager01/fleet-health/internal/analytics"
	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/internal/metrics"
	"github.com/OldStager01/fleet-health/pkg/models"
)

// RunAggregation computes and stores the daily aggregate for one server-day.
// Rebuild semantics: an existing record for the same day is overwritten.
func (o *Orchestrator) RunAggregation(ctx context.Context, serverID string, date time.Time) (*models.DailyAggregate, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	samples, err := o.samples.GetRange(ctx, serverID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	agg, err := analytics.ComputeDailyAggregate(serverID, day, samples)
	if err != nil {
		return nil, err
	}

	if err := o.aggregates.Upsert(ctx, agg); err != nil {
		return nil, fmt.Errorf("failed to store aggregate: %w", err)
	}

	o.publisher.AggregationCompleted(serverID, agg)
	return agg, nil
}

// RunBaseline recomputes the statistical baseline over the configured rolling
// window. The new baseline supersedes the old one; it is never merged.
func (o *Orchestrator) RunBaseline(ctx context.Context, serverID string) (*models.Baseline, error) {
	windowEnd := time.Now().UTC()
	windowStart := windowEnd.AddDate(0, 0, -o.config.Analytics.BaselineWindowDays)

	samples, err := o.samples.GetRange(ctx, serverID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	baseline, err := analytics.ComputeBaseline(serverID, windowStart, windowEnd, samples)
	if err != nil {
		return nil, err
	}

	if err := o.baselines.Insert(ctx, baseline); err != nil {
		return nil, fmt.Errorf("failed to store baseline: %w", err)
	}
	if err := o.baselines.Prune(ctx, serverID, o.config.Analytics.BaselinesKept); err != nil {
		logger.WithServer(serverID).Warnf("Failed to prune old baselines: %v", err)
	}

	o.publisher.BaselineCompleted(serverID, baseline)
	return baseline, nil
}

// RunTrend analyzes the recent sample window for trends, anomalies and
// failure risk. The latest baseline, when present, steadies anomaly scoring.
func (o *Orchestrator) RunTrend(ctx context.Context, serverID string) (*models.TrendAnalysis, error) {
	windowEnd := time.Now().UTC()
	windowStart := windowEnd.Add(-time.Duration(o.config.Analytics.TrendWindowHours) * time.Hour)

	samples, err := o.samples.GetRange(ctx, serverID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	baseline, err := o.baselines.GetLatest(ctx, serverID)
	if err != nil {
		logger.WithServer(serverID).Warnf("Failed to load baseline for trend run: %v", err)
		baseline = nil
	}

	analysis, err := analytics.ComputeTrend(serverID, windowStart, windowEnd, samples, baseline)
	if err != nil {
		return nil, err
	}

	if err := o.trends.Insert(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to store trend analysis: %w", err)
	}
	if err := o.trends.Prune(ctx, serverID, o.config.Analytics.TrendsKept); err != nil {
		logger.WithServer(serverID).Warnf("Failed to prune old trend analyses: %v", err)
	}

	o.publisher.TrendCompleted(serverID, analysis)
	return analysis, nil
}

// CheckStaleness sweeps every known server and forces the stale transitions
// for servers that stopped reporting entirely.
func (o *Orchestrator) CheckStaleness(ctx context.Context) {
	now := time.Now().UTC()

	o.mu.Lock()
	entries := make([]*serverEntry, 0, len(o.entries))
	for _, entry := range o.entries {
		entries = append(entries, entry)
	}
	o.mu.Unlock()

	byStatus := make(map[string]int)
	for _, entry := range entries {
		entry.mu.Lock()
		byStatus[string(entry.state.CurrentStatus)]++
		entry.mu.Unlock()
	}
	metrics.Get().SetFleetState(byStatus)

	for _, entry := range entries {
		entry.mu.Lock()
		if entry.state.LastSampleAt.IsZero() {
			entry.mu.Unlock()
			continue
		}
		decision := o.machine.MarkStale(entry.state, now)
		stateCopy := *entry.state
		entry.mu.Unlock()

		if !decision.Applied {
			continue
		}
		if err := o.healthRepo.Upsert(ctx, &stateCopy); err != nil {
			logger.WithServer(stateCopy.ServerID).Errorf("Failed to persist stale transition: %v", err)
			continue
		}
		o.publishDecision(stateCopy.ServerID, decision, now)
	}
}

// CreateCondition validates and stores a new alert condition.
func (o *Orchestrator) CreateCondition(ctx context.Context, cond *models.AlertConditionConfig) error {
	if cond.ID == "" {
		cond.ID = models.NewUUID()
	}
	if err := alerting.ValidateCondition(cond); err != nil {
		return err
	}
	return o.conditions.Create(ctx, cond)
}

// UpdateCondition validates and replaces an existing alert condition. The
// evaluator's breach clocks for it restart from scratch.
func (o *Orchestrator) UpdateCondition(ctx context.Context, cond *models.AlertConditionConfig) error {
	if err := alerting.ValidateCondition(cond); err != nil {
		return err
	}
	if err := o.conditions.Update(ctx, cond); err != nil {
		return err
	}
	if cond.ServerID != nil {
		o.evaluator.Reset(*cond.ServerID)
	}
	return nil
}

func (o *Orchestrator) DeleteCondition(ctx context.Context, id string) error {
	return o.conditions.Delete(ctx, id)
}
