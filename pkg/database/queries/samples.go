package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/OldStager01/fleet-health/pkg/models"
)

type SampleRepository struct {
	db *sql.DB
}

func NewSampleRepository(db *sql.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

func (r *SampleRepository) Insert(ctx context.Context, s *models.MetricSample) error {
	query := `
		INSERT INTO samples
			(time, server_id, cpu_pct, mem_pct, disk_pct, download_mbps, upload_mbps,
			 latency_ms, packet_loss_pct, load_1m, load_5m, load_15m, active_processes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		s.Timestamp, s.ServerID, s.CPUPct, s.MemPct, s.DiskPct,
		s.Network.DownloadMbps, s.Network.UploadMbps,
		s.Network.LatencyMs, s.Network.PacketLossPct,
		s.Load.Load1, s.Load.Load5, s.Load.Load15,
		s.ActiveProcesses,
	)
	return err
}

func (r *SampleRepository) InsertBatch(ctx context.Context, samples []models.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples
			(time, server_id, cpu_pct, mem_pct, disk_pct, download_mbps, upload_mbps,
			 latency_ms, packet_loss_pct, load_1m, load_5m, load_15m, active_processes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range samples {
		s := &samples[i]
		_, err := stmt.ExecContext(ctx,
			s.Timestamp, s.ServerID, s.CPUPct, s.MemPct, s.DiskPct,
			s.Network.DownloadMbps, s.Network.UploadMbps,
			s.Network.LatencyMs, s.Network.PacketLossPct,
			s.Load.Load1, s.Load.Load5, s.Load.Load15,
			s.ActiveProcesses,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SampleRepository) GetRange(ctx context.Context, serverID string, from, to time.Time) ([]models.MetricSample, error) {
	query := `
		SELECT time, server_id, cpu_pct, mem_pct, disk_pct, download_mbps, upload_mbps,
		       latency_ms, packet_loss_pct, load_1m, load_5m, load_15m, active_processes
		FROM samples
		WHERE server_id = $1 AND time >= $2 AND time < $3
		ORDER BY time ASC`

	rows, err := r.db.QueryContext(ctx, query, serverID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.MetricSample
	for rows.Next() {
		var s models.MetricSample
		err := rows.Scan(
			&s.Timestamp, &s.ServerID, &s.CPUPct, &s.MemPct, &s.DiskPct,
			&s.Network.DownloadMbps, &s.Network.UploadMbps,
			&s.Network.LatencyMs, &s.Network.PacketLossPct,
			&s.Load.Load1, &s.Load.Load5, &s.Load.Load15,
			&s.ActiveProcesses,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

func (r *SampleRepository) GetLatest(ctx context.Context, serverID string) (*models.MetricSample, error) {
	query := `
		SELECT time, server_id, cpu_pct, mem_pct, disk_pct, download_mbps, upload_mbps,
		       latency_ms, packet_loss_pct, load_1m, load_5m, load_15m, active_processes
		FROM samples
		WHERE server_id = $1
		ORDER BY time DESC
		LIMIT 1`

	var s models.MetricSample
	err := r.db.QueryRowContext(ctx, query, serverID).Scan(
		&s.Timestamp, &s.ServerID, &s.CPUPct, &s.MemPct, &s.DiskPct,
		&s.Network.DownloadMbps, &s.Network.UploadMbps,
		&s.Network.LatencyMs, &s.Network.PacketLossPct,
		&s.Load.Load1, &s.Load.Load5, &s.Load.Load15,
		&s.ActiveProcesses,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *SampleRepository) CountRange(ctx context.Context, serverID string, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM samples WHERE server_id = $1 AND time >= $2 AND time < $3`

	var count int
	err := r.db.QueryRowContext(ctx, query, serverID, from, to).Scan(&count)
	return count, err
}

// ListServers returns every server that reported at least one sample since
// the given time. The scheduler uses this as its work list.
func (r *SampleRepository) ListServers(ctx context.Context, since time.Time) ([]string, error) {
	query := `SELECT DISTINCT server_id FROM samples WHERE time >= $1 ORDER BY server_id`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		servers = append(servers, id)
	}

	return servers, rows.Err()
}
