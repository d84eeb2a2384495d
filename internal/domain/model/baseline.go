package model

import (
	"fmt"
	"time"
)

// Calculation methods accepted by the baseline engine. Methods other than
// simple_stats currently delegate to simple_stats and record the requested
// method in the Notes field.
const (
	MethodSimpleStats           = "simple_stats"
	MethodRollingAverage        = "rolling_average"
	MethodSeasonalDecomposition = "seasonal_decomposition"
)

// BaselineStats is the statistical summary of a metric's normal historical
// behavior. Baselines are never mutated; a newer computation supersedes an
// older one and "latest" is resolved by CalculatedAt ordering.
type BaselineStats struct {
	ID           string    `json:"baseline_id"`
	MetricName   string    `json:"metric_name"`
	Mean         float64   `json:"mean"`
	StdDev       float64   `json:"std_dev"`
	MinValue     float64   `json:"min_value"`
	MaxValue     float64   `json:"max_value"`
	P50          float64   `json:"p50"`
	P95          float64   `json:"p95"`
	P99          float64   `json:"p99"`
	CalculatedAt time.Time `json:"calculated_at"`
	LookbackDays int       `json:"lookback_days"`
	SampleCount  int       `json:"sample_count"`
	DataSource   string    `json:"data_source"`
	Notes        string    `json:"notes,omitempty"`
}

// NewBaselineStats creates a BaselineStats shell with a timestamped ID.
func NewBaselineStats(metricName string) BaselineStats {
	now := time.Now().UTC()
	return BaselineStats{
		ID:           fmt.Sprintf("baseline-%s-%s", metricName, now.Format("20060102-150405")),
		MetricName:   metricName,
		CalculatedAt: now,
	}
}

// DataCharacteristics describes a sample series for method selection.
// Volatility buckets follow coefficient-of-variation thresholds 0.1 and 0.3;
// distribution buckets follow skewness thresholds of +/-0.5.
type DataCharacteristics struct {
	SampleCount  int     `json:"sample_count"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	CV           float64 `json:"coefficient_of_variation"`
	Trend        string  `json:"trend"`
	TrendSlope   float64 `json:"trend_slope"`
	Volatility   string  `json:"volatility"`
	Distribution string  `json:"distribution"`
	Skewness     float64 `json:"skewness"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}

// MethodRecommendation is the outcome of method selection, either from the
// deterministic rule table or from the reasoning capability.
type MethodRecommendation struct {
	Method       string  `json:"recommended_method"`
	LookbackDays int     `json:"lookback_days"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}
