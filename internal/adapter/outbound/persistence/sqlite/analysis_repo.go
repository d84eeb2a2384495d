package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// AnalysisRepo implements outbound.AnalysisRepository using SQLite. The
// analysis is stored as a flat record: anomaly fields, root cause, the
// recommendation list as JSON, the five summary sections, and pipeline
// metadata. Reviewer-feedback columns start null and notification bookkeeping
// starts at zero; both are filled in by other tooling.
type AnalysisRepo struct {
	db *sql.DB
}

// NewAnalysisRepo creates a new AnalysisRepo backed by the given store.
func NewAnalysisRepo(store *Store) *AnalysisRepo {
	return &AnalysisRepo{db: store.DB}
}

var _ outbound.AnalysisRepository = (*AnalysisRepo)(nil)

// Create inserts a new analysis row and returns the stored analysis.
func (r *AnalysisRepo) Create(ctx context.Context, a model.AnomalyAnalysis) (model.AnomalyAnalysis, error) {
	affectedResources, err := marshalJSON(a.Anomaly.AffectedResources)
	if err != nil {
		return model.AnomalyAnalysis{}, fmt.Errorf("marshaling affected resources: %w", err)
	}
	factors, err := marshalJSON(a.RootCause.ContributingFactors)
	if err != nil {
		return model.AnomalyAnalysis{}, fmt.Errorf("marshaling contributing factors: %w", err)
	}
	evidence, err := marshalJSON(a.RootCause.Evidence)
	if err != nil {
		return model.AnomalyAnalysis{}, fmt.Errorf("marshaling evidence: %w", err)
	}
	correlationData, err := marshalJSON(a.RootCause.CorrelationData)
	if err != nil {
		return model.AnomalyAnalysis{}, fmt.Errorf("marshaling correlation data: %w", err)
	}
	recommendations, err := marshalJSON(a.Recommendations)
	if err != nil {
		return model.AnomalyAnalysis{}, fmt.Errorf("marshaling recommendations: %w", err)
	}

	const q = `INSERT INTO analyses
		(analysis_id, anomaly_id, metric_name, metric_type, anomaly_type, severity,
		 current_value, baseline_value, deviation_sigma, deviation_percentage,
		 anomaly_confidence, detected_at, affected_resources,
		 root_cause_primary, root_cause_factors, root_cause_confidence,
		 root_cause_evidence, correlation_data, recommendations,
		 summary_what_happened, summary_why_it_happened, summary_impact,
		 summary_improvements, summary_estimated_benefit,
		 ai_model_used, analysis_duration_ms, historical_context, trend_analysis,
		 predicted_impact, migration_detected, migration_summary,
		 notified, notification_attempts, analyzed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0,0,?)`

	_, err = r.db.ExecContext(ctx, q,
		a.ID, a.Anomaly.ID, a.Anomaly.MetricName, a.Anomaly.MetricType,
		string(a.Anomaly.Type), string(a.Anomaly.Severity),
		a.Anomaly.CurrentValue, a.Anomaly.BaselineValue,
		a.Anomaly.DeviationSigma, a.Anomaly.DeviationPercentage,
		a.Anomaly.Confidence, a.Anomaly.DetectedAt.UTC(), affectedResources,
		a.RootCause.PrimaryCause, factors, a.RootCause.Confidence,
		evidence, correlationData, recommendations,
		a.Summary.WhatHappened, a.Summary.WhyItHappened, a.Summary.Impact,
		a.Summary.Improvements, a.Summary.EstimatedBenefit,
		a.ResolverUsed, a.DurationMs, a.HistoricalContext, a.TrendAnalysis,
		a.PredictedImpact, a.MigrationDetected(), a.MigrationSummary(),
		a.AnalyzedAt.UTC(),
	)
	if err != nil {
		return model.AnomalyAnalysis{}, fmt.Errorf("inserting analysis: %w", err)
	}
	return a, nil
}

// GetByID fetches a single analysis by primary key.
func (r *AnalysisRepo) GetByID(ctx context.Context, id string) (model.AnomalyAnalysis, error) {
	row := r.db.QueryRowContext(ctx, selectAnalysis+` WHERE analysis_id = ?`, id)
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return model.AnomalyAnalysis{}, fmt.Errorf("analysis %s not found", id)
	}
	if err != nil {
		return model.AnomalyAnalysis{}, fmt.Errorf("fetching analysis: %w", err)
	}
	return a, nil
}

// GetByAnomalyID returns all analyses for the given anomaly, oldest first.
func (r *AnalysisRepo) GetByAnomalyID(ctx context.Context, anomalyID string) ([]model.AnomalyAnalysis, error) {
	rows, err := r.db.QueryContext(ctx, selectAnalysis+` WHERE anomaly_id = ? ORDER BY analyzed_at ASC`, anomalyID)
	if err != nil {
		return nil, fmt.Errorf("querying analyses by anomaly: %w", err)
	}
	defer rows.Close()

	var results []model.AnomalyAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// --- helpers ---

const selectAnalysis = `SELECT analysis_id, anomaly_id, metric_name, metric_type,
	anomaly_type, severity, current_value, baseline_value, deviation_sigma,
	deviation_percentage, anomaly_confidence, detected_at, affected_resources,
	root_cause_primary, root_cause_factors, root_cause_confidence,
	root_cause_evidence, correlation_data, recommendations,
	summary_what_happened, summary_why_it_happened, summary_impact,
	summary_improvements, summary_estimated_benefit,
	ai_model_used, analysis_duration_ms, historical_context, trend_analysis,
	predicted_impact, analyzed_at
	FROM analyses`

type analysisScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s analysisScanner) (model.AnomalyAnalysis, error) {
	var a model.AnomalyAnalysis
	var anomalyType, severity string
	var affectedResources, factors, evidence, correlationData, recommendations sql.NullString

	err := s.Scan(
		&a.ID, &a.Anomaly.ID, &a.Anomaly.MetricName, &a.Anomaly.MetricType,
		&anomalyType, &severity,
		&a.Anomaly.CurrentValue, &a.Anomaly.BaselineValue,
		&a.Anomaly.DeviationSigma, &a.Anomaly.DeviationPercentage,
		&a.Anomaly.Confidence, &a.Anomaly.DetectedAt, &affectedResources,
		&a.RootCause.PrimaryCause, &factors, &a.RootCause.Confidence,
		&evidence, &correlationData, &recommendations,
		&a.Summary.WhatHappened, &a.Summary.WhyItHappened, &a.Summary.Impact,
		&a.Summary.Improvements, &a.Summary.EstimatedBenefit,
		&a.ResolverUsed, &a.DurationMs, &a.HistoricalContext, &a.TrendAnalysis,
		&a.PredictedImpact, &a.AnalyzedAt,
	)
	if err != nil {
		return model.AnomalyAnalysis{}, err
	}

	a.Anomaly.Type = model.AnomalyType(anomalyType)
	a.Anomaly.Severity = model.Severity(severity)

	unmarshalInto(affectedResources, &a.Anomaly.AffectedResources)
	unmarshalInto(factors, &a.RootCause.ContributingFactors)
	unmarshalInto(evidence, &a.RootCause.Evidence)
	unmarshalInto(recommendations, &a.Recommendations)
	a.RootCause.CorrelationData = unmarshalCorrelationData(correlationData)
	return a, nil
}

// unmarshalCorrelationData restores the typed migration analysis so
// MigrationDetected works on fetched rows.
func unmarshalCorrelationData(src sql.NullString) map[string]any {
	if !src.Valid || src.String == "" || src.String == "null" {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(src.String), &raw); err != nil || len(raw) == 0 {
		return nil
	}
	data := make(map[string]any, len(raw))
	for key, value := range raw {
		if key == "migration_analysis" {
			var impact model.MigrationImpact
			if err := json.Unmarshal(value, &impact); err == nil {
				data[key] = impact
				continue
			}
		}
		var generic any
		if err := json.Unmarshal(value, &generic); err == nil {
			data[key] = generic
		}
	}
	return data
}

func unmarshalInto(src sql.NullString, dst any) {
	if !src.Valid || src.String == "" || src.String == "null" {
		return
	}
	_ = json.Unmarshal([]byte(src.String), dst)
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
