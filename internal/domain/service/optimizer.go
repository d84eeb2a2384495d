package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// MethodOptimizer recommends a baseline calculation method for a metric from
// its data characteristics. When the reasoning capability is enabled and
// confident enough, its recommendation wins; otherwise a deterministic rule
// table decides.
type MethodOptimizer struct {
	llm       outbound.LLMProvider
	useAI     bool
	threshold float64
	logger    *slog.Logger
}

// NewMethodOptimizer creates a MethodOptimizer. llm may be nil, which forces
// rule-based recommendations regardless of useAI.
func NewMethodOptimizer(llm outbound.LLMProvider, useAI bool, threshold float64, logger *slog.Logger) *MethodOptimizer {
	return &MethodOptimizer{llm: llm, useAI: useAI, threshold: threshold, logger: logger}
}

// Recommend returns the method to use for the given metric. Reasoning
// failures and low-confidence answers fall through to the rule table.
func (o *MethodOptimizer) Recommend(
	ctx context.Context,
	metricName string,
	chars model.DataCharacteristics,
	currentMethod string,
) model.MethodRecommendation {
	if o.useAI && o.llm != nil {
		rec, err := o.llm.RecommendMethod(ctx, outbound.MethodSelectionRequest{
			MetricName:      metricName,
			Characteristics: chars,
			CurrentMethod:   currentMethod,
		})
		switch {
		case err != nil:
			o.logger.Warn("method recommendation failed, using rule table", "metric", metricName, "error", err)
		case rec.Confidence >= o.threshold:
			return rec
		default:
			o.logger.Warn("method recommendation below confidence threshold, using rule table",
				"metric", metricName,
				"confidence", rec.Confidence,
				"threshold", o.threshold,
			)
		}
	}

	return ruleBasedRecommendation(chars)
}

// ruleBasedRecommendation maps data characteristics onto a method using fixed
// thresholds: high volatility and non-stable trends favor rolling averages,
// very large series favor seasonal decomposition, everything else keeps
// simple statistics.
func ruleBasedRecommendation(chars model.DataCharacteristics) model.MethodRecommendation {
	rec := model.MethodRecommendation{
		Method:       model.MethodSimpleStats,
		LookbackDays: 30,
		Confidence:   0.75,
		Reasoning:    "Data shows stable characteristics suitable for simple statistical baseline.",
	}

	switch {
	case chars.Volatility == "high":
		rec.Method = model.MethodRollingAverage
		rec.LookbackDays = 14
		rec.Confidence = 0.80
		rec.Reasoning = "High volatility detected. Rolling average will adapt better to rapid changes."
	case chars.Trend != "stable":
		rec.Method = model.MethodRollingAverage
		rec.LookbackDays = 21
		rec.Confidence = 0.85
		rec.Reasoning = fmt.Sprintf("Data shows %s trend. Rolling average will track the trend better than static baseline.", chars.Trend)
	case chars.SampleCount > 10000:
		rec.Method = model.MethodSeasonalDecomposition
		rec.LookbackDays = 90
		rec.Confidence = 0.70
		rec.Reasoning = "Large dataset available. Seasonal decomposition can capture complex patterns."
	}

	return rec
}

// AnalyzeSeries derives the characteristics used for method selection:
// spread, trend direction via least-squares slope, volatility buckets on the
// coefficient of variation, and distribution shape from adjusted skewness.
func AnalyzeSeries(samples []float64) model.DataCharacteristics {
	n := len(samples)
	if n == 0 {
		return model.DataCharacteristics{Trend: "stable", Volatility: "low", Distribution: "normal"}
	}

	var sum float64
	min, max := samples[0], samples[0]
	for _, v := range samples {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	var stdDev float64
	if n > 1 {
		var ss float64
		for _, v := range samples {
			d := v - mean
			ss += d * d
		}
		stdDev = math.Sqrt(ss / float64(n-1))
	}

	cv := 0.0
	if mean != 0 {
		cv = stdDev / mean
	}

	slope := trendSlope(samples, mean)
	trend := "stable"
	if math.Abs(slope) >= 0.01*mean {
		if slope > 0 {
			trend = "increasing"
		} else {
			trend = "decreasing"
		}
	}

	volatility := "high"
	switch {
	case cv < 0.1:
		volatility = "low"
	case cv < 0.3:
		volatility = "medium"
	}

	skew := skewness(samples, mean)
	distribution := "normal"
	if math.Abs(skew) >= 0.5 {
		if skew > 0 {
			distribution = "right_skewed"
		} else {
			distribution = "left_skewed"
		}
	}

	return model.DataCharacteristics{
		SampleCount:  n,
		Mean:         mean,
		StdDev:       stdDev,
		CV:           cv,
		Trend:        trend,
		TrendSlope:   slope,
		Volatility:   volatility,
		Distribution: distribution,
		Skewness:     skew,
		Min:          min,
		Max:          max,
	}
}

// trendSlope fits a least-squares line over sample index and returns its
// slope.
func trendSlope(samples []float64, mean float64) float64 {
	n := len(samples)
	if n < 2 {
		return 0
	}
	xMean := float64(n-1) / 2
	var num, den float64
	for i, v := range samples {
		dx := float64(i) - xMean
		num += dx * (v - mean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// skewness returns the adjusted Fisher-Pearson skewness coefficient, or 0
// when the series is too short or has no spread.
func skewness(samples []float64, mean float64) float64 {
	n := len(samples)
	if n < 3 {
		return 0
	}
	var m2, m3 float64
	for _, v := range samples {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= float64(n)
	m3 /= float64(n)
	if m2 == 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	nf := float64(n)
	return g1 * math.Sqrt(nf*(nf-1)) / (nf - 2)
}
