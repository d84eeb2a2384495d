package service_test

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
	"github.com/jonny/anomaly-insight/internal/domain/service"
)

// --- mock LLM provider (shared across service tests) ---

type mockLLM struct {
	rootCauseResult model.RootCause
	rootCauseErr    error
	recsResult      []model.Recommendation
	recsErr         error
	methodResult    model.MethodRecommendation
	methodErr       error
	modelInfo       outbound.ModelInfo
	modelInfoErr    error
}

func (m *mockLLM) AnalyzeRootCause(_ context.Context, _ outbound.RootCauseRequest) (model.RootCause, error) {
	return m.rootCauseResult, m.rootCauseErr
}
func (m *mockLLM) GenerateRecommendations(_ context.Context, _ outbound.RecommendationRequest) ([]model.Recommendation, error) {
	return m.recsResult, m.recsErr
}
func (m *mockLLM) RecommendMethod(_ context.Context, _ outbound.MethodSelectionRequest) (model.MethodRecommendation, error) {
	return m.methodResult, m.methodErr
}
func (m *mockLLM) HealthCheck(_ context.Context) error { return nil }
func (m *mockLLM) ModelInfo(_ context.Context) (outbound.ModelInfo, error) {
	return m.modelInfo, m.modelInfoErr
}

var _ outbound.LLMProvider = (*mockLLM)(nil)

// --- AnalyzeSeries ---

func TestAnalyzeSeries_StableLowVolatility(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 100 + rng.NormFloat64()*2
	}

	chars := service.AnalyzeSeries(samples)

	if chars.Trend != "stable" {
		t.Errorf("trend = %q, want stable", chars.Trend)
	}
	if chars.Volatility != "low" {
		t.Errorf("volatility = %q, want low", chars.Volatility)
	}
	if chars.Distribution != "normal" {
		t.Errorf("distribution = %q, want normal", chars.Distribution)
	}
	if chars.SampleCount != 1000 {
		t.Errorf("sample_count = %d", chars.SampleCount)
	}
}

func TestAnalyzeSeries_IncreasingTrend(t *testing.T) {
	samples := make([]float64, 200)
	for i := range samples {
		samples[i] = float64(i) * 2
	}

	chars := service.AnalyzeSeries(samples)

	if chars.Trend != "increasing" {
		t.Errorf("trend = %q, want increasing", chars.Trend)
	}
	if chars.TrendSlope <= 0 {
		t.Errorf("trend_slope = %v, want > 0", chars.TrendSlope)
	}
}

func TestAnalyzeSeries_HighVolatility(t *testing.T) {
	// Alternating values give a coefficient of variation well above 0.3.
	samples := make([]float64, 100)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 10
		} else {
			samples[i] = 100
		}
	}

	chars := service.AnalyzeSeries(samples)

	if chars.Volatility != "high" {
		t.Errorf("volatility = %q, want high", chars.Volatility)
	}
}

func TestAnalyzeSeries_RightSkewed(t *testing.T) {
	samples := []float64{1, 1, 1, 1, 1, 1, 1, 1, 2, 50}

	chars := service.AnalyzeSeries(samples)

	if chars.Distribution != "right_skewed" {
		t.Errorf("distribution = %q (skewness %v), want right_skewed", chars.Distribution, chars.Skewness)
	}
}

// --- Recommend ---

func stableChars() model.DataCharacteristics {
	return model.DataCharacteristics{
		SampleCount: 500,
		Mean:        100,
		StdDev:      5,
		CV:          0.05,
		Trend:       "stable",
		Volatility:  "low",
	}
}

func TestMethodOptimizer_RuleTable(t *testing.T) {
	opt := service.NewMethodOptimizer(nil, false, 0.75, slog.Default())

	cases := []struct {
		name         string
		chars        model.DataCharacteristics
		wantMethod   string
		wantLookback int
		wantConf     float64
	}{
		{
			name:         "stable data keeps simple stats",
			chars:        stableChars(),
			wantMethod:   model.MethodSimpleStats,
			wantLookback: 30,
			wantConf:     0.75,
		},
		{
			name: "high volatility picks rolling average",
			chars: model.DataCharacteristics{
				SampleCount: 500, Trend: "stable", Volatility: "high",
			},
			wantMethod:   model.MethodRollingAverage,
			wantLookback: 14,
			wantConf:     0.80,
		},
		{
			name: "trending data picks rolling average",
			chars: model.DataCharacteristics{
				SampleCount: 500, Trend: "increasing", Volatility: "low",
			},
			wantMethod:   model.MethodRollingAverage,
			wantLookback: 21,
			wantConf:     0.85,
		},
		{
			name: "large dataset picks seasonal decomposition",
			chars: model.DataCharacteristics{
				SampleCount: 20000, Trend: "stable", Volatility: "low",
			},
			wantMethod:   model.MethodSeasonalDecomposition,
			wantLookback: 90,
			wantConf:     0.70,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := opt.Recommend(context.Background(), "m", tc.chars, "")
			if rec.Method != tc.wantMethod {
				t.Errorf("method = %q, want %q", rec.Method, tc.wantMethod)
			}
			if rec.LookbackDays != tc.wantLookback {
				t.Errorf("lookback = %d, want %d", rec.LookbackDays, tc.wantLookback)
			}
			if rec.Confidence != tc.wantConf {
				t.Errorf("confidence = %v, want %v", rec.Confidence, tc.wantConf)
			}
			if rec.Reasoning == "" {
				t.Errorf("expected non-empty reasoning")
			}
		})
	}
}

func TestMethodOptimizer_ConfidentAnswerWins(t *testing.T) {
	llm := &mockLLM{methodResult: model.MethodRecommendation{
		Method:       model.MethodSeasonalDecomposition,
		LookbackDays: 60,
		Confidence:   0.9,
		Reasoning:    "clear weekly seasonality",
	}}
	opt := service.NewMethodOptimizer(llm, true, 0.75, slog.Default())

	rec := opt.Recommend(context.Background(), "m", stableChars(), "")
	if rec.Method != model.MethodSeasonalDecomposition {
		t.Errorf("method = %q, want reasoning answer", rec.Method)
	}
}

func TestMethodOptimizer_ConfidenceGateBoundary(t *testing.T) {
	cases := []struct {
		name       string
		confidence float64
		wantMethod string
	}{
		{"just below threshold", 0.74, model.MethodSimpleStats},
		{"exactly at threshold", 0.75, model.MethodSeasonalDecomposition},
		{"just above threshold", 0.76, model.MethodSeasonalDecomposition},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &mockLLM{methodResult: model.MethodRecommendation{
				Method:       model.MethodSeasonalDecomposition,
				LookbackDays: 60,
				Confidence:   tc.confidence,
				Reasoning:    "weekly seasonality",
			}}
			opt := service.NewMethodOptimizer(llm, true, 0.75, slog.Default())

			rec := opt.Recommend(context.Background(), "m", stableChars(), "")
			if rec.Method != tc.wantMethod {
				t.Errorf("method = %q, want %q at confidence %v", rec.Method, tc.wantMethod, tc.confidence)
			}
		})
	}
}

func TestMethodOptimizer_LowConfidenceFallsBackToRules(t *testing.T) {
	llm := &mockLLM{methodResult: model.MethodRecommendation{
		Method:     model.MethodSeasonalDecomposition,
		Confidence: 0.5,
	}}
	opt := service.NewMethodOptimizer(llm, true, 0.75, slog.Default())

	rec := opt.Recommend(context.Background(), "m", stableChars(), "")
	if rec.Method != model.MethodSimpleStats {
		t.Errorf("method = %q, want rule-table answer", rec.Method)
	}
}

func TestMethodOptimizer_ErrorFallsBackToRules(t *testing.T) {
	llm := &mockLLM{methodErr: model.ErrCapabilityUnavailable}
	opt := service.NewMethodOptimizer(llm, true, 0.75, slog.Default())

	rec := opt.Recommend(context.Background(), "m", stableChars(), "")
	if rec.Method != model.MethodSimpleStats {
		t.Errorf("method = %q, want rule-table answer", rec.Method)
	}
}
