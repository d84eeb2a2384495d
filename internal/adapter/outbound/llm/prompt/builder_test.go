package prompt_test

import (
	"strings"
	"testing"

	"github.com/jonny/anomaly-insight/internal/adapter/outbound/llm/prompt"
)

func TestBuildRootCausePrompt(t *testing.T) {
	builder, err := prompt.NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	out, err := builder.BuildRootCausePrompt(prompt.RootCauseInput{
		AnomalyType:         "stability",
		MetricName:          "error_rate",
		CurrentValue:        45,
		BaselineValue:       22.8,
		DeviationSigma:      5.3,
		DeviationPercentage: 97.4,
		Severity:            "critical",
		DetectedAt:          "2025-06-15T12:00:00Z",
		HistoricalSummary:   "Historical data shows 120 data points",
		RecentChangesJSON:   `[{"migration_id":"mig-1"}]`,
		MigrationJSON:       `{"likely_cause":true}`,
	})
	if err != nil {
		t.Fatalf("BuildRootCausePrompt: %v", err)
	}

	for _, want := range []string{
		"Type: stability",
		"Metric: error_rate",
		"Current Value: 45.00",
		"Deviation: 5.30 sigma (97.4%)",
		"Historical data shows 120 data points",
		`[{"migration_id":"mig-1"}]`,
		`"primary_cause"`,
		"RESPOND IN JSON FORMAT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// Empty trend summary falls back to N/A.
	if !strings.Contains(out, "Trend: N/A") {
		t.Errorf("expected N/A trend placeholder")
	}
}

func TestBuildRecommendationsPrompt(t *testing.T) {
	builder, err := prompt.NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	out, err := builder.BuildRecommendationsPrompt(prompt.RecommendationsInput{
		AnomalyType:         "cost",
		Severity:            "high",
		MetricName:          "compute_cost",
		DeviationPercentage: 55.5,
		PrimaryCause:        "over-provisioning",
		ContributingFactors: "waste, redundancy",
		ConfidencePct:       85,
		Guidance:            "COST OPTIMIZATION - Focus on:\n- Cost-saving opportunities",
	})
	if err != nil {
		t.Fatalf("BuildRecommendationsPrompt: %v", err)
	}

	for _, want := range []string{
		"Deviation: 55.5%",
		"Primary: over-provisioning",
		"Confidence: 85%",
		"COST OPTIMIZATION - Focus on:",
		`"recommendations"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildMethodSelectionPrompt(t *testing.T) {
	builder, err := prompt.NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	out, err := builder.BuildMethodSelectionPrompt(prompt.MethodSelectionInput{
		MetricName:  "cpu_utilization",
		SampleCount: 10000,
		Mean:        55.5,
		Trend:       "increasing",
		Volatility:  "medium",
	})
	if err != nil {
		t.Fatalf("BuildMethodSelectionPrompt: %v", err)
	}

	for _, want := range []string{
		"METRIC: cpu_utilization",
		"Sample Count: 10000",
		"Trend: increasing",
		"CURRENT METHOD: None",
		`"recommended_method"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
