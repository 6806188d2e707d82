package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/go-moodtune/internal/health"
)

// MetricRepository handles health metric database operations.
type MetricRepository struct {
	pool *pgxpool.Pool
}

// AddBatch inserts readings efficiently, assigning IDs where missing.
func (r *MetricRepository) AddBatch(ctx context.Context, metrics []HealthMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(metrics))
	userIDs := make([]string, len(metrics))
	devices := make([]string, len(metrics))
	types := make([]string, len(metrics))
	values := make([]float64, len(metrics))
	units := make([]string, len(metrics))
	times := make([]time.Time, len(metrics))

	for i := range metrics {
		if !TimestampInRange(metrics[i].Timestamp) {
			return fmt.Errorf("%w: %s", ErrTimestampRange, metrics[i].Timestamp.Format(time.RFC3339))
		}
		if metrics[i].ID == uuid.Nil {
			metrics[i].ID = uuid.New()
		}
		m := metrics[i]
		ids[i] = m.ID
		userIDs[i] = m.UserID
		devices[i] = m.DeviceType
		types[i] = m.MetricType
		values[i] = m.Value
		units[i] = m.Unit
		times[i] = m.Timestamp
	}

	query := `
		INSERT INTO health_metrics (id, user_id, device_type, metric_type, value, unit, recorded_at)
		SELECT * FROM unnest($1::uuid[], $2::text[], $3::text[], $4::text[], $5::float8[], $6::text[], $7::timestamptz[])
	`
	_, err := r.pool.Exec(ctx, query, ids, userIDs, devices, types, values, units, times)
	if err != nil {
		return fmt.Errorf("batch inserting health metrics: %w", err)
	}
	return nil
}

// List returns a user's readings, newest first.
func (r *MetricRepository) List(ctx context.Context, userID string, f MetricFilter) ([]HealthMetric, error) {
	query := `
		SELECT id, user_id, device_type, metric_type, value, unit, recorded_at
		FROM health_metrics
		WHERE user_id = $1 AND ($2 = '' OR metric_type = $2)
		ORDER BY recorded_at DESC
		LIMIT NULLIF($3, 0)
	`
	rows, err := r.pool.Query(ctx, query, userID, f.MetricType, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("querying health metrics: %w", err)
	}
	defer rows.Close()

	var metrics []HealthMetric
	for rows.Next() {
		var m HealthMetric
		if err := rows.Scan(&m.ID, &m.UserID, &m.DeviceType, &m.MetricType, &m.Value, &m.Unit, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning health metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating health metrics: %w", err)
	}
	return metrics, nil
}

// Latest returns the newest reading per metric type.
func (r *MetricRepository) Latest(ctx context.Context, userID string) (health.Snapshot, error) {
	query := `
		SELECT DISTINCT ON (metric_type) metric_type, value, unit, recorded_at
		FROM health_metrics
		WHERE user_id = $1
		ORDER BY metric_type, recorded_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying latest metrics: %w", err)
	}
	defer rows.Close()

	snap := health.Snapshot{}
	for rows.Next() {
		var (
			metricType string
			m          health.Metric
		)
		if err := rows.Scan(&metricType, &m.Value, &m.Unit, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning latest metric: %w", err)
		}
		snap[metricType] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating latest metrics: %w", err)
	}
	return snap, nil
}
