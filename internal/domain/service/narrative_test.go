package service_test

import (
	"strings"
	"testing"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/service"
)

var composer service.NarrativeComposer

func TestCompose_WhatHappened_PercentMetric(t *testing.T) {
	summary := composer.Compose(testAnomaly(model.AnomalyTypeStability, model.SeverityCritical), model.RootCause{}, nil)

	if !strings.Contains(summary.WhatHappened, "unusual spike in your system's error rate") {
		t.Errorf("expected friendly metric label, got %q", summary.WhatHappened)
	}
	if !strings.Contains(summary.WhatHappened, "increased to 45.0%") {
		t.Errorf("expected percent formatting, got %q", summary.WhatHappened)
	}
	if !strings.Contains(summary.WhatHappened, "97% higher than the normal level of 22.8%") {
		t.Errorf("expected deviation sentence, got %q", summary.WhatHappened)
	}
	if !strings.Contains(summary.WhatHappened, "5.3 times larger than typical variations") {
		t.Errorf("expected sigma sentence, got %q", summary.WhatHappened)
	}
}

func TestCompose_WhatHappened_CostAndTimeFormatting(t *testing.T) {
	cost := testAnomaly(model.AnomalyTypeCost, model.SeverityHigh)
	cost.MetricName = "compute_cost"
	cost.MetricType = "cost_usd"
	cost.CurrentValue = 1234.5
	cost.BaselineValue = 987.65

	summary := composer.Compose(cost, model.RootCause{}, nil)
	if !strings.Contains(summary.WhatHappened, "computing costs increased to $1,234.50") {
		t.Errorf("expected dollar formatting, got %q", summary.WhatHappened)
	}
	if !strings.Contains(summary.WhatHappened, "$987.65") {
		t.Errorf("expected baseline dollars, got %q", summary.WhatHappened)
	}

	latency := testAnomaly(model.AnomalyTypePerformance, model.SeverityHigh)
	latency.MetricName = "request_latency"
	latency.MetricType = "latency_ms"
	latency.CurrentValue = 850.4
	latency.BaselineValue = 210.2

	summary = composer.Compose(latency, model.RootCause{}, nil)
	if !strings.Contains(summary.WhatHappened, "response time increased to 850ms") {
		t.Errorf("expected ms formatting, got %q", summary.WhatHappened)
	}
}

func TestCompose_WhatHappened_AffectedResources(t *testing.T) {
	anomaly := testAnomaly(model.AnomalyTypeStability, model.SeverityHigh)
	anomaly.AffectedResources = []string{"svc-a", "svc-b", "svc-c"}

	summary := composer.Compose(anomaly, model.RootCause{}, nil)
	if !strings.Contains(summary.WhatHappened, "affecting 3 resources in your system") {
		t.Errorf("expected resource count, got %q", summary.WhatHappened)
	}

	anomaly.AffectedResources = []string{"svc-a"}
	summary = composer.Compose(anomaly, model.RootCause{}, nil)
	if !strings.Contains(summary.WhatHappened, "affecting 1 resource in your system") {
		t.Errorf("expected singular phrasing, got %q", summary.WhatHappened)
	}
}

func TestCompose_WhyItHappened_ConfidenceBands(t *testing.T) {
	cases := []struct {
		confidence float64
		want       string
	}{
		{0.95, "very confident (95%)"},
		{0.80, "confident (80%)"},
		{0.65, "reasonably confident (65%)"},
		{0.40, "moderately confident (40%)"},
	}

	for _, tc := range cases {
		rc := model.RootCause{PrimaryCause: "cause", Confidence: tc.confidence}
		summary := composer.Compose(testAnomaly(model.AnomalyTypeStability, model.SeverityHigh), rc, nil)
		if !strings.Contains(summary.WhyItHappened, tc.want) {
			t.Errorf("confidence %v: expected %q in %q", tc.confidence, tc.want, summary.WhyItHappened)
		}
	}
}

func TestCompose_WhyItHappened_FactorsEvidenceAndMigration(t *testing.T) {
	rc := model.RootCause{
		PrimaryCause:        "Deployment pressure",
		ContributingFactors: []string{"f1", "f2", "f3", "f4"},
		Confidence:          0.8,
		Evidence:            []string{"e1", "e2"},
	}
	rc = rc.WithMigrationImpact(model.MigrationImpact{
		LikelyCause:   true,
		ImpactSummary: "migration added 500 users",
		ImpactFactors: []string{"mf1"},
	})

	summary := composer.Compose(testAnomaly(model.AnomalyTypeStability, model.SeverityHigh), rc, nil)

	why := summary.WhyItHappened
	if !strings.HasPrefix(why, "Deployment pressure") {
		t.Errorf("expected primary cause first, got %q", why)
	}
	if !strings.Contains(why, "Several factors contributed to this issue:\n1. f1\n2. f2\n3. f3") {
		t.Errorf("expected top-3 numbered factors, got %q", why)
	}
	if strings.Contains(why, "f4") {
		t.Errorf("expected factors capped at 3")
	}
	if !strings.Contains(why, "We identified this by observing:\n• e1\n• e2") {
		t.Errorf("expected evidence bullets, got %q", why)
	}
	if !strings.Contains(why, "**Migration Event Detected:**\nmigration added 500 users") {
		t.Errorf("expected migration block, got %q", why)
	}
	if !strings.Contains(why, "Specific changes that may have caused this:\n• mf1") {
		t.Errorf("expected migration factors, got %q", why)
	}
}

func TestCompose_Impact_CostCriticalInterpolatesValues(t *testing.T) {
	anomaly := testAnomaly(model.AnomalyTypeCost, model.SeverityCritical)
	anomaly.CurrentValue = 5000
	anomaly.BaselineValue = 2000
	anomaly.DeviationPercentage = 150

	summary := composer.Compose(anomaly, model.RootCause{}, nil)

	if !strings.Contains(summary.Impact, "spiked dramatically to $5,000.00") {
		t.Errorf("expected current cost, got %q", summary.Impact)
	}
	if !strings.Contains(summary.Impact, "150% higher than your normal spending of $2,000.00") {
		t.Errorf("expected baseline comparison, got %q", summary.Impact)
	}
	if !strings.Contains(summary.Impact, "Time is critical") {
		t.Errorf("expected urgency clause for critical severity, got %q", summary.Impact)
	}
}

func TestCompose_Impact_LowSeverityHasNoUrgencyClause(t *testing.T) {
	summary := composer.Compose(testAnomaly(model.AnomalyTypeStability, model.SeverityLow), model.RootCause{}, nil)

	if !strings.Contains(summary.Impact, "Minor stability issues detected") {
		t.Errorf("unexpected impact: %q", summary.Impact)
	}
	if strings.Contains(summary.Impact, "Time is critical") {
		t.Errorf("low severity should not carry urgency clause")
	}
}

func TestCompose_Improvements(t *testing.T) {
	recs := []model.Recommendation{
		{
			Priority:            model.SeverityHigh,
			Action:              "Scale out",
			Rationale:           "bottleneck",
			ImplementationSteps: []string{"s1", "s2", "s3", "s4"},
			EstimatedEffort:     "1 hour",
		},
		{Priority: model.SeverityMedium, Action: "Add cache", Rationale: "hot path"},
	}

	summary := composer.Compose(testAnomaly(model.AnomalyTypePerformance, model.SeverityHigh), model.RootCause{}, recs)

	improvements := summary.Improvements
	if !strings.HasPrefix(improvements, "Based on our analysis, here are the actions we recommend:") {
		t.Errorf("unexpected header: %q", improvements)
	}
	if !strings.Contains(improvements, "\U0001F7E0 **HIGH PRIORITY**: Scale out") {
		t.Errorf("expected high-priority marker, got %q", improvements)
	}
	if !strings.Contains(improvements, "Why: bottleneck") {
		t.Errorf("expected rationale, got %q", improvements)
	}
	if !strings.Contains(improvements, "• s3") || strings.Contains(improvements, "• s4") {
		t.Errorf("expected steps capped at 3, got %q", improvements)
	}
	if !strings.Contains(improvements, "Time needed: 1 hour") {
		t.Errorf("expected effort line, got %q", improvements)
	}
	if !strings.Contains(improvements, "\U0001F7E1 **MEDIUM PRIORITY**: Add cache") {
		t.Errorf("expected second recommendation, got %q", improvements)
	}
}

func TestCompose_Improvements_Empty(t *testing.T) {
	summary := composer.Compose(testAnomaly(model.AnomalyTypeStability, model.SeverityHigh), model.RootCause{}, nil)

	want := "We're still analyzing the best course of action. Please check back shortly for specific recommendations."
	if summary.Improvements != want {
		t.Errorf("unexpected improvements: %q", summary.Improvements)
	}
}

func TestCompose_Benefits_CostSavingsMath(t *testing.T) {
	anomaly := testAnomaly(model.AnomalyTypeCost, model.SeverityHigh)
	anomaly.CurrentValue = 500
	anomaly.BaselineValue = 300

	recs := []model.Recommendation{
		{Priority: model.SeverityHigh, Action: "a", CostImpact: "No performance impact expected"},
	}

	summary := composer.Compose(anomaly, model.RootCause{}, recs)

	benefit := summary.EstimatedBenefit
	if !strings.Contains(benefit, "you can save **$200.00 per day** (approximately **$6,000.00 per month**)") {
		t.Errorf("expected daily and monthly savings, got %q", benefit)
	}
	if !strings.Contains(benefit, "returning to your baseline cost of $300.00") {
		t.Errorf("expected baseline reference, got %q", benefit)
	}
	if !strings.Contains(benefit, "**No Performance Trade-off**") {
		t.Errorf("expected no-trade-off paragraph when cost impact mentions performance, got %q", benefit)
	}
	if !strings.Contains(benefit, "**Quick Wins**") {
		t.Errorf("expected quick wins for high severity, got %q", benefit)
	}
	if !strings.Contains(benefit, "**Long-term Stability**") {
		t.Errorf("expected long-term benefit, got %q", benefit)
	}
}

func TestCompose_Benefits_PerformanceQuotesBaselineOnly(t *testing.T) {
	anomaly := testAnomaly(model.AnomalyTypePerformance, model.SeverityMedium)
	anomaly.BaselineValue = 210

	recs := []model.Recommendation{{Priority: model.SeverityMedium, Action: "a"}}
	summary := composer.Compose(anomaly, model.RootCause{}, recs)

	if !strings.Contains(summary.EstimatedBenefit, "(baseline: 210ms)") {
		t.Errorf("expected baseline quote, got %q", summary.EstimatedBenefit)
	}
	if strings.Contains(summary.EstimatedBenefit, "**Quick Wins**") {
		t.Errorf("medium severity should not include quick wins")
	}
}

func TestCompose_Benefits_Empty(t *testing.T) {
	summary := composer.Compose(testAnomaly(model.AnomalyTypeCost, model.SeverityHigh), model.RootCause{}, nil)

	want := "Benefits will be determined once specific recommendations are available."
	if summary.EstimatedBenefit != want {
		t.Errorf("unexpected benefit: %q", summary.EstimatedBenefit)
	}
}
