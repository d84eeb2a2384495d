package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// optimizerSampleLimit caps the number of samples fed into method selection.
const optimizerSampleLimit = 10000

// MetricSpec identifies a metric and where its raw samples live.
type MetricSpec struct {
	Name    string
	Column  string
	Table   string
	Enabled bool
}

// BaselineEngine computes statistical baselines from historical samples and
// stores them through the baseline repository. The optimizer is optional;
// when nil every metric uses the configured default method.
type BaselineEngine struct {
	samples   outbound.SampleReader
	baselines outbound.BaselineRepository
	optimizer *MethodOptimizer
	method    string
	lookback  int
	logger    *slog.Logger
}

// NewBaselineEngine creates a BaselineEngine with the given defaults.
func NewBaselineEngine(
	samples outbound.SampleReader,
	baselines outbound.BaselineRepository,
	optimizer *MethodOptimizer,
	method string,
	lookbackDays int,
	logger *slog.Logger,
) *BaselineEngine {
	return &BaselineEngine{
		samples:   samples,
		baselines: baselines,
		optimizer: optimizer,
		method:    method,
		lookback:  lookbackDays,
		logger:    logger,
	}
}

// Compute calculates a baseline for one metric. A zero lookbackDays or empty
// method falls back to the engine defaults. Methods other than simple_stats
// are not implemented as distinct algorithms yet; they delegate to
// simple_stats and record the requested method in the baseline notes.
func (e *BaselineEngine) Compute(
	ctx context.Context,
	metricName, metricColumn, sourceTable string,
	lookbackDays int,
	method string,
) (model.BaselineStats, error) {
	if lookbackDays == 0 {
		lookbackDays = e.lookback
	}
	if method == "" {
		method = e.method
	}

	samples, err := e.samples.FetchSamples(ctx, metricColumn, sourceTable, nil)
	if err != nil {
		return model.BaselineStats{}, fmt.Errorf("fetch samples for %s: %w", metricName, err)
	}
	if len(samples) == 0 {
		return model.BaselineStats{}, fmt.Errorf("%w: %s in %s", model.ErrNoDataForMetric, metricName, sourceTable)
	}

	switch method {
	case model.MethodSimpleStats:
		// Primary path.
	case model.MethodRollingAverage, model.MethodSeasonalDecomposition:
		e.logger.Warn("method delegates to simple_stats", "metric", metricName, "method", method)
	default:
		e.logger.Warn("unknown method, using simple_stats", "metric", metricName, "method", method)
		method = model.MethodSimpleStats
	}

	baseline, err := SummarizeSamples(samples)
	if err != nil {
		return model.BaselineStats{}, fmt.Errorf("summarize %s: %w", metricName, err)
	}

	stamped := model.NewBaselineStats(metricName)
	baseline.ID = stamped.ID
	baseline.MetricName = metricName
	baseline.CalculatedAt = stamped.CalculatedAt
	baseline.LookbackDays = lookbackDays
	baseline.DataSource = sourceTable
	baseline.Notes = fmt.Sprintf("Calculated from %s column using simple_stats method", metricColumn)
	if method != model.MethodSimpleStats {
		baseline.Notes += fmt.Sprintf("; requested method: %s", method)
	}

	e.logger.Info("baseline calculated",
		"metric", metricName,
		"mean", baseline.Mean,
		"std_dev", baseline.StdDev,
		"p95", baseline.P95,
		"samples", baseline.SampleCount,
	)

	return baseline, nil
}

// ComputeOptimized selects a calculation method from the metric's own data
// characteristics before computing. Selection failures fall back to the
// engine defaults; they never fail the computation.
func (e *BaselineEngine) ComputeOptimized(ctx context.Context, metric MetricSpec) (model.BaselineStats, error) {
	if e.optimizer == nil {
		return e.Compute(ctx, metric.Name, metric.Column, metric.Table, 0, "")
	}

	samples, err := e.samples.FetchSamples(ctx, metric.Column, metric.Table, nil)
	if err != nil || len(samples) == 0 {
		e.logger.Warn("no sample data for method selection, using defaults", "metric", metric.Name, "error", err)
		return e.Compute(ctx, metric.Name, metric.Column, metric.Table, 0, "")
	}
	if len(samples) > optimizerSampleLimit {
		samples = samples[:optimizerSampleLimit]
	}

	chars := AnalyzeSeries(samples)
	rec := e.optimizer.Recommend(ctx, metric.Name, chars, e.method)

	e.logger.Info("method selected",
		"metric", metric.Name,
		"method", rec.Method,
		"confidence", rec.Confidence,
		"lookback_days", rec.LookbackDays,
	)

	return e.Compute(ctx, metric.Name, metric.Column, metric.Table, rec.LookbackDays, rec.Method)
}

// ComputeAll computes and saves a baseline for every enabled metric. Failures
// are logged per metric; the remaining metrics are still processed.
func (e *BaselineEngine) ComputeAll(ctx context.Context, metrics []MetricSpec) ([]model.BaselineStats, error) {
	var computed []model.BaselineStats

	for _, metric := range metrics {
		if !metric.Enabled {
			e.logger.Debug("metric disabled, skipping", "metric", metric.Name)
			continue
		}

		baseline, err := e.ComputeOptimized(ctx, metric)
		if err != nil {
			e.logger.Error("baseline computation failed", "metric", metric.Name, "error", err)
			continue
		}

		if err := e.baselines.Save(ctx, baseline); err != nil {
			e.logger.Error("baseline save failed", "metric", metric.Name, "error", err)
			continue
		}

		computed = append(computed, baseline)
	}

	return computed, nil
}

// Latest returns the most recently computed baseline for a metric.
func (e *BaselineEngine) Latest(ctx context.Context, metricName string) (model.BaselineStats, error) {
	return e.baselines.Latest(ctx, metricName)
}

// SummarizeSamples computes the statistical summary of a sample series:
// mean, sample standard deviation, min/max, and interpolated percentiles.
func SummarizeSamples(samples []float64) (model.BaselineStats, error) {
	if len(samples) == 0 {
		return model.BaselineStats{}, model.ErrEmptyDataset
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	n := len(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var stdDev float64
	if n > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - mean
			ss += d * d
		}
		stdDev = math.Sqrt(ss / float64(n-1))
	}

	return model.BaselineStats{
		Mean:        mean,
		StdDev:      stdDev,
		MinValue:    sorted[0],
		MaxValue:    sorted[n-1],
		P50:         percentile(sorted, 0.50),
		P95:         percentile(sorted, 0.95),
		P99:         percentile(sorted, 0.99),
		SampleCount: n,
	}, nil
}

// percentile returns the q-th percentile of a sorted series using linear
// interpolation between closest ranks.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
