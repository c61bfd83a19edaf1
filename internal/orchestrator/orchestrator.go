package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/OldStager01/fleet-health/internal/alerting"
	"github.com/OldStager01/fleet-health/internal/classifier"
	"github.com/OldStager01/fleet-health/internal/events"
	"github.com/OldStager01/fleet-health/internal/health"
	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/internal/metrics"
	"github.com/OldStager01/fleet-health/pkg/config"
	"github.com/OldStager01/fleet-health/pkg/database"
	"github.com/OldStager01/fleet-health/pkg/database/queries"
	"github.com/OldStager01/fleet-health/pkg/models"
)

// Orchestrator wires the classifier, the hysteresis machine and the alert
// evaluator together and owns the in-memory health state of every server.
// All mutation of one server's state happens under that server's lock.
type Orchestrator struct {
	config      *config.Config
	db          *database.DB
	eventBus    *events.EventBus
	eventLogger *events.EventLogger
	publisher   *events.Publisher
	machine     *health.Machine
	evaluator   *alerting.Evaluator

	samples    *queries.SampleRepository
	healthRepo *queries.HealthStateRepository
	conditions *queries.AlertConditionRepository
	instances  *queries.AlertInstanceRepository
	aggregates *queries.AggregateRepository
	baselines  *queries.BaselineRepository
	trends     *queries.TrendRepository

	entries map[string]*serverEntry
	mu      sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// serverEntry pairs one server's health state with its lock.
type serverEntry struct {
	mu    sync.Mutex
	state *models.ServerHealthState
}

func New(cfg *config.Config, db *database.DB) (*Orchestrator, error) {
	machine, err := health.NewMachine(health.Config{
		Policy:         policyFromConfig(cfg.Hysteresis),
		SoftStaleDelay: cfg.Hysteresis.SoftStaleDelay,
		HardStaleDelay: cfg.Hysteresis.HardStaleDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid hysteresis config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	eventBus := events.NewEventBus(cfg.Events.BufferSize)

	// Subscribe event logger to all events
	allEvents := eventBus.SubscribeAll()
	eventLogger := events.NewEventLogger(db, allEvents)

	return &Orchestrator{
		config:      cfg,
		db:          db,
		eventBus:    eventBus,
		eventLogger: eventLogger,
		publisher:   events.NewPublisher(eventBus),
		machine:     machine,
		evaluator:   alerting.NewEvaluator(),
		samples:     queries.NewSampleRepository(db.DB),
		healthRepo:  queries.NewHealthStateRepository(db.DB),
		conditions:  queries.NewAlertConditionRepository(db.DB),
		instances:   queries.NewAlertInstanceRepository(db.DB),
		aggregates:  queries.NewAggregateRepository(db.DB),
		baselines:   queries.NewBaselineRepository(db.DB),
		trends:      queries.NewTrendRepository(db.DB),
		entries:     make(map[string]*serverEntry),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func policyFromConfig(cfg config.HysteresisConfig) health.Policy {
	if len(cfg.Holds) == 0 {
		return health.DefaultPolicy()
	}
	policy := health.DefaultPolicy()
	for status, hold := range cfg.Holds {
		policy[models.ServerStatus(status)] = health.Hold{
			MinHold:         hold.MinHold,
			RequiredSamples: hold.RequiredSamples,
		}
	}
	return policy
}

// Start loads the persisted health states and begins event logging.
func (o *Orchestrator) Start() error {
	logger.Info("Orchestrator starting")

	states, err := o.healthRepo.GetAll(o.ctx)
	if err != nil {
		return fmt.Errorf("failed to load health states: %w", err)
	}
	for _, state := range states {
		state.Recent = models.NewStatusRing(o.machine.RingCapacity())
		o.entries[state.ServerID] = &serverEntry{state: state}
	}
	logger.Infof("Loaded health state for %d servers", len(states))

	o.eventLogger.Start()
	return nil
}

func (o *Orchestrator) Stop() {
	logger.Info("Orchestrator stopping")
	o.cancel()
	o.eventLogger.Stop()
	o.eventBus.Close()
	logger.Info("Orchestrator stopped")
}

// PushSample runs the full ingest pipeline for one sample: classify, run the
// hysteresis machine, persist, evaluate alert conditions, publish events.
func (o *Orchestrator) PushSample(ctx context.Context, sample *models.MetricSample) (*models.Classification, error) {
	if sample.ServerID == "" {
		return nil, models.NewValidationError("server_id", "server id is required")
	}
	if sample.Timestamp.IsZero() {
		return nil, models.NewValidationError("timestamp", "timestamp is required")
	}

	now := time.Now().UTC()
	c := classifier.Classify(sample)

	entry := o.entry(sample.ServerID, now)
	entry.mu.Lock()
	decision := o.machine.Evaluate(entry.state, c, now)
	stateCopy := *entry.state
	entry.mu.Unlock()

	if err := o.samples.Insert(ctx, sample); err != nil {
		return nil, fmt.Errorf("failed to persist sample: %w", err)
	}
	if err := o.healthRepo.Upsert(ctx, &stateCopy); err != nil {
		return nil, fmt.Errorf("failed to persist health state: %w", err)
	}

	metrics.Get().IncSamples()
	o.publisher.SampleReceived(sample.ServerID, c)
	o.publishDecision(sample.ServerID, decision, now)

	o.evaluateAlerts(ctx, sample, now)

	return c, nil
}

func (o *Orchestrator) publishDecision(serverID string, decision health.Decision, now time.Time) {
	if decision.Applied {
		metrics.Get().IncStatusChange(string(decision.NewStatus))
		o.publisher.StatusChanged(&models.StatusChange{
			ServerID:   serverID,
			OldStatus:  decision.OldStatus,
			NewStatus:  decision.NewStatus,
			Reason:     decision.Reason,
			Confidence: decision.Confidence,
			Timestamp:  now,
		})
		return
	}

	switch decision.Reason {
	case health.ReasonHoldTimeNotElapsed, health.ReasonSamplesNotAgreeing:
		o.publisher.TransitionRejected(serverID, decision.NewStatus, decision.Reason)
	}
}

func (o *Orchestrator) evaluateAlerts(ctx context.Context, sample *models.MetricSample, now time.Time) {
	configs, err := o.conditions.GetForServer(ctx, sample.ServerID)
	if err != nil {
		logger.WithServer(sample.ServerID).Errorf("Failed to load alert conditions: %v", err)
		return
	}
	if len(configs) == 0 {
		return
	}

	applicable := make([]models.AlertConditionConfig, 0, len(configs))
	for _, c := range configs {
		applicable = append(applicable, *c)
	}
	applicable = alerting.MergeConditions(sample.ServerID, applicable)

	for _, event := range o.evaluator.Evaluate(sample, applicable, now) {
		ev := event
		if err := o.instances.Upsert(ctx, ev.Instance); err != nil {
			logger.WithServer(sample.ServerID).Errorf("Failed to persist alert instance: %v", err)
		}
		metrics.Get().IncAlertEvent(string(ev.Type))
		o.publisher.AlertEvent(sample.ServerID, &ev)
	}
}

// SetOverride pins a server to an administrative status.
func (o *Orchestrator) SetOverride(ctx context.Context, serverID string, status models.ServerStatus, reason string, duration *time.Duration) (*models.ServerHealthState, error) {
	now := time.Now().UTC()
	entry := o.entry(serverID, now)

	entry.mu.Lock()
	decision, err := o.machine.SetOverride(entry.state, status, reason, duration, now)
	if err != nil {
		entry.mu.Unlock()
		return nil, err
	}
	stateCopy := *entry.state
	entry.mu.Unlock()

	if err := o.healthRepo.Upsert(ctx, &stateCopy); err != nil {
		return nil, fmt.Errorf("failed to persist health state: %w", err)
	}

	o.publishDecision(serverID, decision, now)
	return &stateCopy, nil
}

// ClearOverride reverts an administrative override and resumes automatic
// transitions from the most recent classified status.
func (o *Orchestrator) ClearOverride(ctx context.Context, serverID string) (*models.ServerHealthState, error) {
	now := time.Now().UTC()
	entry := o.entry(serverID, now)

	entry.mu.Lock()
	decision, err := o.machine.ClearOverride(entry.state, now)
	if err != nil {
		entry.mu.Unlock()
		return nil, err
	}
	stateCopy := *entry.state
	entry.mu.Unlock()

	if err := o.healthRepo.Upsert(ctx, &stateCopy); err != nil {
		return nil, fmt.Errorf("failed to persist health state: %w", err)
	}

	o.publishDecision(serverID, decision, now)
	return &stateCopy, nil
}

// GetState returns a copy of one server's health state.
func (o *Orchestrator) GetState(serverID string) (*models.ServerHealthState, error) {
	o.mu.Lock()
	entry, ok := o.entries[serverID]
	o.mu.Unlock()
	if !ok {
		return nil, queries.ErrServerNotFound
	}

	entry.mu.Lock()
	stateCopy := *entry.state
	entry.mu.Unlock()
	return &stateCopy, nil
}

// GetAllStates returns copies of every known server's health state.
func (o *Orchestrator) GetAllStates() []*models.ServerHealthState {
	o.mu.Lock()
	entries := make([]*serverEntry, 0, len(o.entries))
	for _, entry := range o.entries {
		entries = append(entries, entry)
	}
	o.mu.Unlock()

	states := make([]*models.ServerHealthState, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		stateCopy := *entry.state
		entry.mu.Unlock()
		states = append(states, &stateCopy)
	}
	return states
}

func (o *Orchestrator) entry(serverID string, now time.Time) *serverEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.entries[serverID]
	if !ok {
		entry = &serverEntry{state: models.NewServerHealthState(serverID, o.machine.RingCapacity(), now)}
		o.entries[serverID] = entry
	}
	return entry
}

// Repositories exposed for the API layer.

func (o *Orchestrator) Samples() *queries.SampleRepository { return o.samples }

func (o *Orchestrator) HealthStates() *queries.HealthStateRepository { return o.healthRepo }

func (o *Orchestrator) Conditions() *queries.AlertConditionRepository { return o.conditions }

func (o *Orchestrator) AlertInstances() *queries.AlertInstanceRepository { return o.instances }

func (o *Orchestrator) Aggregates() *queries.AggregateRepository { return o.aggregates }

func (o *Orchestrator) Baselines() *queries.BaselineRepository { return o.baselines }

func (o *Orchestrator) Trends() *queries.TrendRepository { return o.trends }

func (o *Orchestrator) Publisher() *events.Publisher { return o.publisher }

func (o *Orchestrator) SubscribeEvents(eventType models.EventType) <-chan *models.Event {
	return o.eventBus.Subscribe(eventType)
}

func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}
