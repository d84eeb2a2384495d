package sqlite_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonny/anomaly-insight/internal/adapter/outbound/persistence/sqlite"
	"github.com/jonny/anomaly-insight/internal/domain/model"
)

func testAnalysis(id, anomalyID string) model.AnomalyAnalysis {
	rootCause := model.RootCause{
		PrimaryCause:        "System instability triggered by recent changes",
		ContributingFactors: []string{"Recent system changes or migrations"},
		Confidence:          0.75,
		Evidence:            []string{"Current value (45.00) deviates 5.30 sigma from baseline (22.80)"},
	}
	rootCause = rootCause.WithMigrationImpact(model.MigrationImpact{
		LikelyCause:   true,
		ImpactSummary: "1 recent migration(s) detected that likely caused this anomaly",
		ImpactFactors: []string{"Added 500 users to the system"},
	})

	return model.AnomalyAnalysis{
		ID: id,
		Anomaly: model.Anomaly{
			ID:                  anomalyID,
			DetectedAt:          time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			MetricName:          "error_rate",
			MetricType:          "Error_Rate _%_",
			CurrentValue:        45,
			BaselineValue:       22.8,
			DeviationSigma:      5.3,
			DeviationPercentage: 97.4,
			Type:                model.AnomalyTypeStability,
			Severity:            model.SeverityCritical,
			Confidence:          0.95,
			AffectedResources:   []string{"api-gateway"},
		},
		RootCause: rootCause,
		Recommendations: []model.Recommendation{
			{
				Priority:  model.SeverityHigh,
				Action:    "Review recent deployments and rollback if necessary",
				Rationale: "Recent changes are the most common cause of stability issues",
				RiskLevel: "low",
			},
		},
		Summary: model.HumanReadableSummary{
			WhatHappened:     "The error rate jumped to 45.0%.",
			WhyItHappened:    "System instability triggered by recent changes",
			Impact:           "Users are experiencing failures.",
			Improvements:     "Roll back the last deployment.",
			EstimatedBenefit: "Error rate returns to baseline.",
		},
		ResolverUsed:      "rule-based",
		DurationMs:        42,
		HistoricalContext: "Historical data shows 120 data points",
		TrendAnalysis:     "Metric shows a stable trend with low volatility over the last 24 hours",
		PredictedImpact:   "Severe impact on system reliability and user experience",
		AnalyzedAt:        time.Date(2025, 6, 15, 12, 0, 5, 0, time.UTC),
	}
}

func TestAnalysisCreateAndGetByID(t *testing.T) {
	store := newTestStore(t)
	repo := sqlite.NewAnalysisRepo(store)
	ctx := context.Background()

	original := testAnalysis("analysis-001", "anomaly-001")
	if _, err := repo.Create(ctx, original); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "analysis-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Anomaly.ID != "anomaly-001" || got.Anomaly.MetricName != "error_rate" {
		t.Errorf("unexpected anomaly round-trip %+v", got.Anomaly)
	}
	if got.Anomaly.Severity != model.SeverityCritical || got.Anomaly.Type != model.AnomalyTypeStability {
		t.Errorf("unexpected classification %s/%s", got.Anomaly.Type, got.Anomaly.Severity)
	}
	if got.RootCause.PrimaryCause != original.RootCause.PrimaryCause {
		t.Errorf("root cause = %q", got.RootCause.PrimaryCause)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Priority != model.SeverityHigh {
		t.Errorf("unexpected recommendations %+v", got.Recommendations)
	}
	if got.Summary.WhatHappened != original.Summary.WhatHappened {
		t.Errorf("summary = %q", got.Summary.WhatHappened)
	}
	if got.ResolverUsed != "rule-based" || got.DurationMs != 42 {
		t.Errorf("metadata round-trip: %s/%d", got.ResolverUsed, got.DurationMs)
	}
	if !got.MigrationDetected() {
		t.Error("migration impact should survive the round-trip")
	}
	if got.MigrationSummary() != "1 recent migration(s) detected that likely caused this anomaly" {
		t.Errorf("migration summary = %q", got.MigrationSummary())
	}
}

func TestAnalysisCreateInitializesFeedbackColumns(t *testing.T) {
	store := newTestStore(t)
	repo := sqlite.NewAnalysisRepo(store)

	if _, err := repo.Create(context.Background(), testAnalysis("analysis-001", "anomaly-001")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var isFalsePositive, reviewedBy any
	var notified, attempts int
	err := store.DB.QueryRow(
		`SELECT is_false_positive, reviewed_by, notified, notification_attempts
		 FROM analyses WHERE analysis_id = ?`, "analysis-001",
	).Scan(&isFalsePositive, &reviewedBy, &notified, &attempts)
	if err != nil {
		t.Fatalf("querying feedback columns: %v", err)
	}
	if isFalsePositive != nil || reviewedBy != nil {
		t.Errorf("feedback columns should start null, got %v/%v", isFalsePositive, reviewedBy)
	}
	if notified != 0 || attempts != 0 {
		t.Errorf("notification bookkeeping should start at zero, got %d/%d", notified, attempts)
	}
}

func TestAnalysisGetByAnomalyID(t *testing.T) {
	store := newTestStore(t)
	repo := sqlite.NewAnalysisRepo(store)
	ctx := context.Background()

	first := testAnalysis("analysis-001", "anomaly-001")
	second := testAnalysis("analysis-002", "anomaly-001")
	second.AnalyzedAt = first.AnalyzedAt.Add(time.Minute)
	other := testAnalysis("analysis-003", "anomaly-002")

	for _, a := range []model.AnomalyAnalysis{second, first, other} {
		if _, err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create %s: %v", a.ID, err)
		}
	}

	results, err := repo.GetByAnomalyID(ctx, "anomaly-001")
	if err != nil {
		t.Fatalf("GetByAnomalyID: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(results))
	}
	if results[0].ID != "analysis-001" || results[1].ID != "analysis-002" {
		t.Errorf("expected oldest first, got %s, %s", results[0].ID, results[1].ID)
	}
}

func TestAnalysisGetByIDNotFound(t *testing.T) {
	store := newTestStore(t)
	repo := sqlite.NewAnalysisRepo(store)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}
