package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/OldStager01/fleet-health/pkg/models"
)

type AggregateRepository struct {
	db *sql.DB
}

func NewAggregateRepository(db *sql.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// Upsert overwrites the aggregate for (server, date). Rebuilds replace the
// record wholesale.
func (r *AggregateRepository) Upsert(ctx context.Context, agg *models.DailyAggregate) error {
	perParamJSON, err := json.Marshal(agg.PerParameter)
	if err != nil {
		return err
	}
	minutesJSON, err := json.Marshal(agg.MinutesInCondition)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO daily_aggregates
			(server_id, date, sample_count, per_parameter, dominant_condition,
			 minutes_in_condition, transition_count, uptime_pct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (server_id, date) DO UPDATE SET
			sample_count = EXCLUDED.sample_count,
			per_parameter = EXCLUDED.per_parameter,
			dominant_condition = EXCLUDED.dominant_condition,
			minutes_in_condition = EXCLUDED.minutes_in_condition,
			transition_count = EXCLUDED.transition_count,
			uptime_pct = EXCLUDED.uptime_pct,
			created_at = EXCLUDED.created_at`

	_, err = r.db.ExecContext(ctx, query,
		agg.ServerID,
		agg.Date,
		agg.SampleCount,
		perParamJSON,
		agg.DominantCondition,
		minutesJSON,
		agg.TransitionCount,
		agg.UptimePct,
		agg.CreatedAt,
	)
	return err
}

func (r *AggregateRepository) Get(ctx context.Context, serverID string, date time.Time) (*models.DailyAggregate, error) {
	query := aggregateSelect + ` WHERE server_id = $1 AND date = $2`

	row := r.db.QueryRowContext(ctx, query, serverID, date)
	agg, err := scanAggregate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return agg, err
}

func (r *AggregateRepository) GetRange(ctx context.Context, serverID string, from, to time.Time) ([]*models.DailyAggregate, error) {
	query := aggregateSelect + `
		WHERE server_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, serverID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggregates []*models.DailyAggregate
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}

	return aggregates, rows.Err()
}

const aggregateSelect = `
	SELECT server_id, date, sample_count, per_parameter, dominant_condition,
	       minutes_in_condition, transition_count, uptime_pct, created_at
	FROM daily_aggregates`

func scanAggregate(row rowScanner) (*models.DailyAggregate, error) {
	var agg models.DailyAggregate
	var perParamJSON, minutesJSON []byte

	err := row.Scan(
		&agg.ServerID,
		&agg.Date,
		&agg.SampleCount,
		&perParamJSON,
		&agg.DominantCondition,
		&minutesJSON,
		&agg.TransitionCount,
		&agg.UptimePct,
		&agg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal(perParamJSON, &agg.PerParameter)
	json.Unmarshal(minutesJSON, &agg.MinutesInCondition)

	return &agg, nil
}
