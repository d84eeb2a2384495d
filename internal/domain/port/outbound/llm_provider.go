package outbound

import (
	"context"

	"github.com/jonny/anomaly-insight/internal/domain/model"
)

// RootCauseRequest carries the anomaly and its gathered context into
// reasoning-backed root-cause analysis.
type RootCauseRequest struct {
	Anomaly           model.Anomaly
	HistoricalSummary string
	TrendSummary      string
	RecentChanges     []model.ChangeEvent
	Migration         model.MigrationImpact
}

// RecommendationRequest carries the anomaly and resolved root cause into
// reasoning-backed recommendation generation.
type RecommendationRequest struct {
	Anomaly   model.Anomaly
	RootCause model.RootCause
}

// MethodSelectionRequest carries a metric's data characteristics into
// reasoning-backed baseline method selection.
type MethodSelectionRequest struct {
	MetricName      string
	Characteristics model.DataCharacteristics
	CurrentMethod   string
}

type ModelInfo struct {
	Provider string
	Model    string
}

// LLMProvider abstracts the external reasoning capability: a structured
// prompt in, free text expected to contain a JSON payload out. Any failure
// (transport, non-JSON output, missing keys) is reported as an error wrapping
// model.ErrCapabilityUnavailable or model.ErrMalformedResponse; callers fall
// back to the deterministic arm and never propagate these.
type LLMProvider interface {
	AnalyzeRootCause(ctx context.Context, req RootCauseRequest) (model.RootCause, error)
	GenerateRecommendations(ctx context.Context, req RecommendationRequest) ([]model.Recommendation, error)
	RecommendMethod(ctx context.Context, req MethodSelectionRequest) (model.MethodRecommendation, error)
	HealthCheck(ctx context.Context) error
	ModelInfo(ctx context.Context) (ModelInfo, error)
}
