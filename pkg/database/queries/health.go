package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/OldStager01/fleet-health/pkg/models"
)

var ErrServerNotFound = errors.New("server not found")

type HealthStateRepository struct {
	db *sql.DB
}

func NewHealthStateRepository(db *sql.DB) *HealthStateRepository {
	return &HealthStateRepository{db: db}
}

func (r *HealthStateRepository) Upsert(ctx context.Context, state *models.ServerHealthState) error {
	var overrideJSON []byte
	if state.Override != nil {
		var err error
		overrideJSON, err = json.Marshal(state.Override)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO server_health
			(server_id, current_status, last_status_change_at, last_sample_at, confidence, override, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (server_id) DO UPDATE SET
			current_status = EXCLUDED.current_status,
			last_status_change_at = EXCLUDED.last_status_change_at,
			last_sample_at = EXCLUDED.last_sample_at,
			confidence = EXCLUDED.confidence,
			override = EXCLUDED.override,
			updated_at = NOW()`

	var lastSample interface{}
	if !state.LastSampleAt.IsZero() {
		lastSample = state.LastSampleAt
	}

	_, err := r.db.ExecContext(ctx, query,
		state.ServerID,
		state.CurrentStatus,
		state.LastStatusChangeAt,
		lastSample,
		state.Confidence,
		overrideJSON,
	)
	return err
}

func (r *HealthStateRepository) Get(ctx context.Context, serverID string) (*models.ServerHealthState, error) {
	query := `
		SELECT server_id, current_status, last_status_change_at, last_sample_at, confidence, override
		FROM server_health
		WHERE server_id = $1`

	row := r.db.QueryRowContext(ctx, query, serverID)
	state, err := scanHealthState(row)
	if err == sql.ErrNoRows {
		return nil, ErrServerNotFound
	}
	return state, err
}

func (r *HealthStateRepository) GetAll(ctx context.Context) ([]*models.ServerHealthState, error) {
	query := `
		SELECT server_id, current_status, last_status_change_at, last_sample_at, confidence, override
		FROM server_health
		ORDER BY server_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*models.ServerHealthState
	for rows.Next() {
		state, err := scanHealthState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}

	return states, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHealthState(row rowScanner) (*models.ServerHealthState, error) {
	var state models.ServerHealthState
	var lastSample sql.NullTime
	var overrideJSON []byte

	err := row.Scan(
		&state.ServerID,
		&state.CurrentStatus,
		&state.LastStatusChangeAt,
		&lastSample,
		&state.Confidence,
		&overrideJSON,
	)
	if err != nil {
		return nil, err
	}

	if lastSample.Valid {
		state.LastSampleAt = lastSample.Time
	}
	if len(overrideJSON) > 0 {
		state.Override = &models.StatusOverride{}
		json.Unmarshal(overrideJSON, state.Override)
	}

	return &state, nil
}

func (r *HealthStateRepository) ListStatusChanges(ctx context.Context, serverID string, limit int) ([]models.StatusChange, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, server_id, timestamp, old_status, new_status, reason, confidence
		FROM status_changes
		WHERE server_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, serverID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		err := rows.Scan(&c.ID, &c.ServerID, &c.Timestamp, &c.OldStatus, &c.NewStatus, &c.Reason, &c.Confidence)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}

	return changes, rows.Err()
}
