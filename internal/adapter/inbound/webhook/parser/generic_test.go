package parser_test

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonny/anomaly-insight/internal/adapter/inbound/webhook/parser"
	"github.com/jonny/anomaly-insight/internal/domain/model"
)

func TestGenericParser_Source(t *testing.T) {
	p := parser.NewGenericParser()
	if p.Source() != "custom" {
		t.Errorf("expected 'custom', got %q", p.Source())
	}
}

func TestGenericParser_CanParse(t *testing.T) {
	p := parser.NewGenericParser()

	tests := []struct {
		contentType string
		expected    bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"text/plain", false},
		{"", false},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
		if tc.contentType != "" {
			req.Header.Set("Content-Type", tc.contentType)
		}
		if got := p.CanParse(req); got != tc.expected {
			t.Errorf("CanParse(%q) = %v, want %v", tc.contentType, got, tc.expected)
		}
	}
}

func TestGenericParser_Parse(t *testing.T) {
	p := parser.NewGenericParser()
	body := `{
		"metric": "response_time",
		"metric_type": "Response_Time _ms_",
		"value": 420,
		"baseline": 210,
		"type": "latency",
		"severity": "warning",
		"resources": ["api-gateway"]
	}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	anomalies, err := p.Parse(context.Background(), req)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(anomalies))
	}

	a := anomalies[0]
	if a.ID == "" {
		t.Error("expected a generated ID")
	}
	if a.MetricName != "response_time" || a.CurrentValue != 420 || a.BaselineValue != 210 {
		t.Errorf("unexpected anomaly %+v", a)
	}
	if a.Type != model.AnomalyTypePerformance {
		t.Errorf("type = %s, want performance", a.Type)
	}
	if a.Severity != model.SeverityMedium {
		t.Errorf("severity = %s, want medium", a.Severity)
	}
	if math.Abs(a.DeviationPercentage-100) > 1e-9 {
		t.Errorf("deviation percentage = %v, want 100", a.DeviationPercentage)
	}
	if len(a.AffectedResources) != 1 || a.AffectedResources[0] != "api-gateway" {
		t.Errorf("unexpected resources %v", a.AffectedResources)
	}
}

func TestGenericParser_ParseZeroBaseline(t *testing.T) {
	p := parser.NewGenericParser()
	body := `{"metric": "error_rate", "value": 5, "baseline": 0, "type": "stability"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	anomalies, err := p.Parse(context.Background(), req)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if anomalies[0].DeviationPercentage != 0 {
		t.Errorf("zero baseline should leave deviation percentage at 0, got %v", anomalies[0].DeviationPercentage)
	}
}

func TestGenericParser_ParseMissingMetric(t *testing.T) {
	p := parser.NewGenericParser()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"value": 5}`))
	req.Header.Set("Content-Type", "application/json")

	if _, err := p.Parse(context.Background(), req); err == nil {
		t.Error("expected error for missing metric")
	}
}
