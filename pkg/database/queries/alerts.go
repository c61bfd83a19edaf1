package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/OldStager01/fleet-health/pkg/models"
)

var ErrConditionNotFound = errors.New("alert condition not found")

type AlertConditionRepository struct {
	db *sql.DB
}

func NewAlertConditionRepository(db *sql.DB) *AlertConditionRepository {
	return &AlertConditionRepository{db: db}
}

func (r *AlertConditionRepository) Create(ctx context.Context, cond *models.AlertConditionConfig) error {
	warningJSON, criticalJSON, recoveryJSON, antiSpamJSON, err := marshalConditionParts(cond)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO alert_conditions
			(id, server_id, parameter, warning, critical, recovery, anti_spam, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		cond.ID,
		cond.ServerID,
		cond.Parameter,
		warningJSON,
		criticalJSON,
		recoveryJSON,
		antiSpamJSON,
		cond.Enabled,
	).Scan(&cond.CreatedAt, &cond.UpdatedAt)
}

func (r *AlertConditionRepository) Update(ctx context.Context, cond *models.AlertConditionConfig) error {
	warningJSON, criticalJSON, recoveryJSON, antiSpamJSON, err := marshalConditionParts(cond)
	if err != nil {
		return err
	}

	query := `
		UPDATE alert_conditions
		SET server_id = $2, parameter = $3, warning = $4, critical = $5,
		    recovery = $6, anti_spam = $7, enabled = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = r.db.QueryRowContext(ctx, query,
		cond.ID,
		cond.ServerID,
		cond.Parameter,
		warningJSON,
		criticalJSON,
		recoveryJSON,
		antiSpamJSON,
		cond.Enabled,
	).Scan(&cond.UpdatedAt)

	if err == sql.ErrNoRows {
		return ErrConditionNotFound
	}
	return err
}

func (r *AlertConditionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alert_conditions WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConditionNotFound
	}

	return nil
}

func (r *AlertConditionRepository) GetByID(ctx context.Context, id string) (*models.AlertConditionConfig, error) {
	query := conditionSelect + ` WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	cond, err := scanCondition(row)
	if err == sql.ErrNoRows {
		return nil, ErrConditionNotFound
	}
	return cond, err
}

func (r *AlertConditionRepository) GetAll(ctx context.Context) ([]*models.AlertConditionConfig, error) {
	return r.list(ctx, conditionSelect+` ORDER BY created_at`)
}

// GetForServer returns the enabled conditions relevant to one server: its own
// plus the fleet-wide ones. Shadowing is the evaluator's job.
func (r *AlertConditionRepository) GetForServer(ctx context.Context, serverID string) ([]*models.AlertConditionConfig, error) {
	query := conditionSelect + `
		WHERE enabled = TRUE AND (server_id IS NULL OR server_id = $1)
		ORDER BY created_at`
	return r.list(ctx, query, serverID)
}

const conditionSelect = `
	SELECT id, server_id, parameter, warning, critical, recovery, anti_spam, enabled, created_at, updated_at
	FROM alert_conditions`

func (r *AlertConditionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.AlertConditionConfig, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conditions []*models.AlertConditionConfig
	for rows.Next() {
		cond, err := scanCondition(rows)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	return conditions, rows.Err()
}

func marshalConditionParts(cond *models.AlertConditionConfig) ([]byte, []byte, []byte, []byte, error) {
	warningJSON, err := json.Marshal(cond.Warning)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	criticalJSON, err := json.Marshal(cond.Critical)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	recoveryJSON, err := json.Marshal(cond.Recovery)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	antiSpamJSON, err := json.Marshal(cond.AntiSpam)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return warningJSON, criticalJSON, recoveryJSON, antiSpamJSON, nil
}

func scanCondition(row rowScanner) (*models.AlertConditionConfig, error) {
	var cond models.AlertConditionConfig
	var warningJSON, criticalJSON, recoveryJSON, antiSpamJSON []byte

	err := row.Scan(
		&cond.ID,
		&cond.ServerID,
		&cond.Parameter,
		&warningJSON,
		&criticalJSON,
		&recoveryJSON,
		&antiSpamJSON,
		&cond.Enabled,
		&cond.CreatedAt,
		&cond.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal(warningJSON, &cond.Warning)
	json.Unmarshal(criticalJSON, &cond.Critical)
	json.Unmarshal(recoveryJSON, &cond.Recovery)
	json.Unmarshal(antiSpamJSON, &cond.AntiSpam)

	return &cond, nil
}

type AlertInstanceRepository struct {
	db *sql.DB
}

func NewAlertInstanceRepository(db *sql.DB) *AlertInstanceRepository {
	return &AlertInstanceRepository{db: db}
}

func (r *AlertInstanceRepository) Upsert(ctx context.Context, inst *models.AlertInstance) error {
	query := `
		INSERT INTO alert_instances
			(id, condition_id, server_id, parameter, severity, first_fired_at, last_fired_at, occurrence_count, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			severity = EXCLUDED.severity,
			last_fired_at = EXCLUDED.last_fired_at,
			occurrence_count = EXCLUDED.occurrence_count,
			state = EXCLUDED.state`

	_, err := r.db.ExecContext(ctx, query,
		inst.ID,
		inst.ConditionID,
		inst.ServerID,
		inst.Parameter,
		inst.Severity,
		inst.FirstFiredAt,
		inst.LastFiredAt,
		inst.OccurrenceCount,
		inst.State,
	)
	return err
}

func (r *AlertInstanceRepository) GetActive(ctx context.Context, serverID string) ([]*models.AlertInstance, error) {
	query := `
		SELECT id, condition_id, server_id, parameter, severity, first_fired_at, last_fired_at, occurrence_count, state
		FROM alert_instances
		WHERE server_id = $1 AND state != 'RESOLVED'
		ORDER BY last_fired_at DESC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*models.AlertInstance
	for rows.Next() {
		var inst models.AlertInstance
		err := rows.Scan(
			&inst.ID, &inst.ConditionID, &inst.ServerID, &inst.Parameter, &inst.Severity,
			&inst.FirstFiredAt, &inst.LastFiredAt, &inst.OccurrenceCount, &inst.State,
		)
		if err != nil {
			return nil, err
		}
		instances = append(instances, &inst)
	}

	return instances, rows.Err()
}

type AlertEventRecord struct {
	ID          int                   `json:"id"`
	InstanceID  string                `json:"instance_id"`
	ServerID    string                `json:"server_id"`
	ConditionID string                `json:"condition_id"`
	Parameter   models.Parameter      `json:"parameter"`
	Severity    models.AlertSeverity  `json:"severity"`
	EventType   models.AlertEventType `json:"event_type"`
	Reason      string                `json:"reason"`
	Value       float64               `json:"value"`
	Timestamp   time.Time             `json:"timestamp"`
}

func (r *AlertInstanceRepository) ListEvents(ctx context.Context, serverID string, limit int) ([]AlertEventRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, instance_id, server_id, condition_id, parameter, severity, event_type, reason, value, timestamp
		FROM alert_events
		WHERE server_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, serverID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []AlertEventRecord
	for rows.Next() {
		var e AlertEventRecord
		err := rows.Scan(
			&e.ID, &e.InstanceID, &e.ServerID, &e.ConditionID, &e.Parameter,
			&e.Severity, &e.EventType, &e.Reason, &e.Value, &e.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
