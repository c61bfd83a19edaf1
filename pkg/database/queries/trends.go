package queries

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/OldStager01/fleet-health/pkg/models"
)

type TrendRepository struct {
	db *sql.DB
}

func NewTrendRepository(db *sql.DB) *TrendRepository {
	return &TrendRepository{db: db}
}

func (r *TrendRepository) Insert(ctx context.Context, t *models.TrendAnalysis) error {
	perParamJSON, err := json.Marshal(t.PerParameter)
	if err != nil {
		return err
	}
	anomaliesJSON, err := json.Marshal(t.Anomalies)
	if err != nil {
		return err
	}
	riskJSON, err := json.Marshal(t.Risk)
	if err != nil {
		return err
	}
	recsJSON, err := json.Marshal(t.Recommendations)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trend_analyses
			(server_id, window_start, window_end, sample_count, per_parameter,
			 anomalies, anomaly_score, risk, recommendations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.ExecContext(ctx, query,
		t.ServerID,
		t.WindowStart,
		t.WindowEnd,
		t.SampleCount,
		perParamJSON,
		anomaliesJSON,
		t.AnomalyScore,
		riskJSON,
		recsJSON,
		t.CreatedAt,
	)
	return err
}

// GetLatest returns the newest trend analysis for a server, or nil when none
// has been computed yet.
func (r *TrendRepository) GetLatest(ctx context.Context, serverID string) (*models.TrendAnalysis, error) {
	query := `
		SELECT server_id, window_start, window_end, sample_count, per_parameter,
		       anomalies, anomaly_score, risk, recommendations, created_at
		FROM trend_analyses
		WHERE server_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var t models.TrendAnalysis
	var perParamJSON, anomaliesJSON, riskJSON, recsJSON []byte

	err := r.db.QueryRowContext(ctx, query, serverID).Scan(
		&t.ServerID,
		&t.WindowStart,
		&t.WindowEnd,
		&t.SampleCount,
		&perParamJSON,
		&anomaliesJSON,
		&t.AnomalyScore,
		&riskJSON,
		&recsJSON,
		&t.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	json.Unmarshal(perParamJSON, &t.PerParameter)
	json.Unmarshal(anomaliesJSON, &t.Anomalies)
	json.Unmarshal(riskJSON, &t.Risk)
	json.Unmarshal(recsJSON, &t.Recommendations)

	return &t, nil
}

// Prune deletes all but the newest keep analyses per server.
func (r *TrendRepository) Prune(ctx context.Context, serverID string, keep int) error {
	if keep <= 0 {
		keep = 1
	}

	query := `
		DELETE FROM trend_analyses
		WHERE server_id = $1 AND id NOT IN (
			SELECT id FROM trend_analyses
			WHERE server_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)`

	_, err := r.db.ExecContext(ctx, query, serverID, keep)
	return err
}
