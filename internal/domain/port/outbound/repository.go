package outbound

import (
	"context"
	"time"

	"github.com/jonny/anomaly-insight/internal/domain/model"
)

// TimeRange bounds a metric-sample query. A nil *TimeRange means the full
// retained history.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// SampleReader fetches raw numeric samples for a metric column from a source
// table in the warehouse store.
type SampleReader interface {
	FetchSamples(ctx context.Context, metricColumn, sourceTable string, tr *TimeRange) ([]float64, error)
}

// ChangeEventReader lists recorded migrations/deployments within a window.
// Implementations must tolerate missing optional fields by treating them as
// absent or zero.
type ChangeEventReader interface {
	FetchChangeEvents(ctx context.Context, start, end time.Time) ([]model.ChangeEvent, error)
}

// BaselineRepository stores computed baselines. Baselines are append-only;
// Latest resolves by computation timestamp.
type BaselineRepository interface {
	Save(ctx context.Context, baseline model.BaselineStats) error
	Latest(ctx context.Context, metricName string) (model.BaselineStats, error)
}

// AnalysisRepository persists the assembled analysis as a flat record with
// null-initialized reviewer-feedback fields and notification bookkeeping.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis model.AnomalyAnalysis) (model.AnomalyAnalysis, error)
	GetByID(ctx context.Context, id string) (model.AnomalyAnalysis, error)
	GetByAnomalyID(ctx context.Context, anomalyID string) ([]model.AnomalyAnalysis, error)
}
