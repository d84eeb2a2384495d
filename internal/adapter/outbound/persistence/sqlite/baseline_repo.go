package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// BaselineRepo implements outbound.BaselineRepository using SQLite. Baselines
// are append-only; recomputation inserts a new row and Latest resolves by
// calculation timestamp.
type BaselineRepo struct {
	db *sql.DB
}

// NewBaselineRepo creates a new BaselineRepo backed by the given store.
func NewBaselineRepo(store *Store) *BaselineRepo {
	return &BaselineRepo{db: store.DB}
}

var _ outbound.BaselineRepository = (*BaselineRepo)(nil)

// Save inserts a computed baseline row.
func (r *BaselineRepo) Save(ctx context.Context, b model.BaselineStats) error {
	const q = `INSERT INTO baselines
		(baseline_id, metric_name, mean, std_dev, min_value, max_value,
		 p50, p95, p99, calculated_at, lookback_days, sample_count, data_source, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.MetricName, b.Mean, b.StdDev, b.MinValue, b.MaxValue,
		b.P50, b.P95, b.P99, b.CalculatedAt.UTC(),
		b.LookbackDays, b.SampleCount, b.DataSource, b.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting baseline: %w", err)
	}
	return nil
}

// Latest returns the most recently calculated baseline for the metric.
func (r *BaselineRepo) Latest(ctx context.Context, metricName string) (model.BaselineStats, error) {
	const q = `SELECT baseline_id, metric_name, mean, std_dev, min_value, max_value,
		p50, p95, p99, calculated_at, lookback_days, sample_count, data_source, notes
		FROM baselines WHERE metric_name = ?
		ORDER BY calculated_at DESC LIMIT 1`

	var b model.BaselineStats
	var notes sql.NullString
	err := r.db.QueryRowContext(ctx, q, metricName).Scan(
		&b.ID, &b.MetricName, &b.Mean, &b.StdDev, &b.MinValue, &b.MaxValue,
		&b.P50, &b.P95, &b.P99, &b.CalculatedAt,
		&b.LookbackDays, &b.SampleCount, &b.DataSource, &notes,
	)
	if err == sql.ErrNoRows {
		return model.BaselineStats{}, fmt.Errorf("%w: %s", model.ErrNoDataForMetric, metricName)
	}
	if err != nil {
		return model.BaselineStats{}, fmt.Errorf("fetching latest baseline: %w", err)
	}
	b.Notes = notes.String
	return b, nil
}
