package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonny/anomaly-insight/internal/domain/model"
)

// genericPayload represents the simplified JSON structure for the generic
// webhook parser, for detectors that do not speak the native shape.
type genericPayload struct {
	Metric     string   `json:"metric"`
	MetricType string   `json:"metric_type"`
	Value      float64  `json:"value"`
	Baseline   float64  `json:"baseline"`
	Type       string   `json:"type"`
	Severity   string   `json:"severity"`
	Resources  []string `json:"resources"`
}

// GenericParser is a fallback parser that accepts any JSON payload with a
// simplified structure. It matches any request with a JSON content-type.
type GenericParser struct{}

// NewGenericParser creates a new GenericParser.
func NewGenericParser() *GenericParser {
	return &GenericParser{}
}

// Source returns the source identifier for generic webhook anomalies.
func (g *GenericParser) Source() string {
	return "custom"
}

// CanParse returns true for any request with a JSON Content-Type (fallback parser).
func (g *GenericParser) CanParse(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.Contains(ct, "application/json")
}

// ValidateSignature validates a Bearer token in the Authorization header.
// Returns nil when no secret is configured (authentication disabled).
func (g *GenericParser) ValidateSignature(r *http.Request, secret string) error {
	return validateBearerToken(r, secret)
}

// Parse extracts a single anomaly from the simplified generic JSON payload.
// The deviation percentage is derived from value and baseline.
func (g *GenericParser) Parse(_ context.Context, r *http.Request) ([]model.Anomaly, error) {
	var payload genericPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("generic: failed to decode JSON: %w", err)
	}

	if payload.Metric == "" {
		return nil, fmt.Errorf("generic: missing required field 'metric'")
	}

	anomaly := model.NewAnomaly(
		payload.Metric,
		payload.MetricType,
		genericAnomalyType(payload.Type),
		genericSeverity(payload.Severity),
	)
	anomaly.CurrentValue = payload.Value
	anomaly.BaselineValue = payload.Baseline
	anomaly.AffectedResources = payload.Resources
	if payload.Baseline != 0 {
		anomaly.DeviationPercentage = (payload.Value - payload.Baseline) / payload.Baseline * 100
	}

	return []model.Anomaly{anomaly}, nil
}

// genericAnomalyType maps a loose type string to a known anomaly type.
func genericAnomalyType(s string) model.AnomalyType {
	switch strings.ToLower(s) {
	case "stability", "error", "availability":
		return model.AnomalyTypeStability
	case "performance", "latency":
		return model.AnomalyTypePerformance
	case "cost", "billing":
		return model.AnomalyTypeCost
	default:
		return model.AnomalyTypeResource
	}
}

// genericSeverity maps a loose severity string to model.Severity.
func genericSeverity(s string) model.Severity {
	switch strings.ToLower(s) {
	case "critical", "error", "p1":
		return model.SeverityCritical
	case "high", "p2":
		return model.SeverityHigh
	case "medium", "warning", "warn", "p3":
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
