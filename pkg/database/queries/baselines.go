package queries

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/OldStager01/fleet-health/pkg/models"
)

type BaselineRepository struct {
	db *sql.DB
}

func NewBaselineRepository(db *sql.DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

func (r *BaselineRepository) Insert(ctx context.Context, b *models.Baseline) error {
	perParamJSON, err := json.Marshal(b.PerParameter)
	if err != nil {
		return err
	}
	hourlyJSON, err := json.Marshal(b.HourlyProfile)
	if err != nil {
		return err
	}
	dayTypeJSON, err := json.Marshal(b.DayType)
	if err != nil {
		return err
	}
	qualityJSON, err := json.Marshal(b.Quality)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO baselines
			(server_id, window_start, window_end, sample_count, per_parameter,
			 hourly_profile, day_type, quality, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		b.ServerID,
		b.WindowStart,
		b.WindowEnd,
		b.SampleCount,
		perParamJSON,
		hourlyJSON,
		dayTypeJSON,
		qualityJSON,
		b.CreatedAt,
	)
	return err
}

// GetLatest returns the newest baseline for a server, or nil when none has
// been computed yet.
func (r *BaselineRepository) GetLatest(ctx context.Context, serverID string) (*models.Baseline, error) {
	query := `
		SELECT server_id, window_start, window_end, sample_count, per_parameter,
		       hourly_profile, day_type, quality, created_at
		FROM baselines
		WHERE server_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var b models.Baseline
	var perParamJSON, hourlyJSON, dayTypeJSON, qualityJSON []byte

	err := r.db.QueryRowContext(ctx, query, serverID).Scan(
		&b.ServerID,
		&b.WindowStart,
		&b.WindowEnd,
		&b.SampleCount,
		&perParamJSON,
		&hourlyJSON,
		&dayTypeJSON,
		&qualityJSON,
		&b.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	json.Unmarshal(perParamJSON, &b.PerParameter)
	json.Unmarshal(hourlyJSON, &b.HourlyProfile)
	json.Unmarshal(dayTypeJSON, &b.DayType)
	json.Unmarshal(qualityJSON, &b.Quality)

	return &b, nil
}

// Prune deletes all but the newest keep baselines per server.
func (r *BaselineRepository) Prune(ctx context.Context, serverID string, keep int) error {
	if keep <= 0 {
		keep = 1
	}

	query := `
		DELETE FROM baselines
		WHERE server_id = $1 AND id NOT IN (
			SELECT id FROM baselines
			WHERE server_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)`

	_, err := r.db.ExecContext(ctx, query, serverID, keep)
	return err
}
