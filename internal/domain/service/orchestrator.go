package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/inbound"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// contextWindow is how far back from the detection time the orchestrator
// looks for historical samples and change events.
const contextWindow = 24 * time.Hour

// batchConcurrency bounds how many anomalies from one batch are analyzed at
// the same time.
const batchConcurrency = 4

// Repositories groups the data dependencies of the orchestrator.
type Repositories struct {
	Samples  outbound.SampleReader
	Changes  outbound.ChangeEventReader
	Analyses outbound.AnalysisRepository
}

// Orchestrator runs the full analysis pipeline for incoming anomalies:
// context gathering, root-cause resolution, recommendation generation,
// narrative composition, persistence, and notification. It implements
// inbound.AnomalyReceiverPort.
type Orchestrator struct {
	resolver    *RootCauseResolver
	recommender *RecommendationEngine
	composer    NarrativeComposer
	notifier    outbound.Notifier
	llm         outbound.LLMProvider
	repos       Repositories
	metrics     map[string]MetricSpec
	logger      *slog.Logger
}

// NewOrchestrator creates an Orchestrator. The metric specs let the context
// gatherer locate raw samples for the anomaly's metric; llm may be nil, in
// which case analyses are labelled rule-based.
func NewOrchestrator(
	resolver *RootCauseResolver,
	recommender *RecommendationEngine,
	notifier outbound.Notifier,
	llm outbound.LLMProvider,
	repos Repositories,
	metrics []MetricSpec,
	logger *slog.Logger,
) *Orchestrator {
	byName := make(map[string]MetricSpec, len(metrics))
	for _, m := range metrics {
		byName[m.Name] = m
	}
	return &Orchestrator{
		resolver:    resolver,
		recommender: recommender,
		notifier:    notifier,
		llm:         llm,
		repos:       repos,
		metrics:     byName,
		logger:      logger,
	}
}

var _ inbound.AnomalyReceiverPort = (*Orchestrator)(nil)

// ReceiveAnomaly runs one anomaly through the pipeline. Persistence and
// notification failures are logged but never fail the analysis; the caller
// always gets the assembled result.
func (o *Orchestrator) ReceiveAnomaly(ctx context.Context, anomaly model.Anomaly) (model.AnomalyAnalysis, error) {
	start := time.Now()
	o.logger.Info("analyzing anomaly",
		"anomaly_id", anomaly.ID,
		"type", anomaly.Type,
		"severity", anomaly.Severity,
	)

	// 1. Gather context: historical samples, change events, correlation.
	pctx := o.gatherContext(ctx, anomaly)

	// 2. Resolve root cause.
	rootCause := o.resolver.Resolve(ctx, anomaly, pctx)

	// 3. Generate recommendations.
	recommendations := o.recommender.Generate(ctx, anomaly, rootCause)

	// 4. Compose the plain-language summary.
	summary := o.composer.Compose(anomaly, rootCause, recommendations)

	// 5. Assemble. Duration covers the whole pipeline regardless of which
	// arm produced the results.
	analysis := model.NewAnalysis(anomaly)
	analysis.RootCause = rootCause
	analysis.Recommendations = recommendations
	analysis.Summary = summary
	analysis.ResolverUsed = o.resolverLabel(ctx)
	analysis.HistoricalContext = pctx.HistoricalSummary
	analysis.TrendAnalysis = pctx.TrendSummary
	analysis.PredictedImpact = predictImpact(anomaly)
	analysis.DurationMs = time.Since(start).Milliseconds()

	o.logger.Info("analysis complete",
		"analysis_id", analysis.ID,
		"root_cause", rootCause.PrimaryCause,
		"recommendations", len(recommendations),
		"duration_ms", analysis.DurationMs,
	)

	// 6. Persist. The analysis is still returned if the store is down.
	if saved, err := o.repos.Analyses.Create(ctx, analysis); err != nil {
		o.logger.Error("failed to save analysis", "analysis_id", analysis.ID, "error", err)
	} else {
		analysis = saved
	}

	// 7. Notify, best effort.
	o.notify(ctx, analysis)

	return analysis, nil
}

// ReceiveAnomalies processes a batch concurrently, continuing past individual
// failures. Each anomaly runs through its own pipeline with no shared state;
// the first failure is reported after every anomaly has been processed.
func (o *Orchestrator) ReceiveAnomalies(ctx context.Context, anomalies []model.Anomaly) error {
	var g errgroup.Group
	g.SetLimit(batchConcurrency)

	for _, anomaly := range anomalies {
		anomaly := anomaly
		g.Go(func() error {
			if _, err := o.ReceiveAnomaly(ctx, anomaly); err != nil {
				return fmt.Errorf("anomaly %s: %w", anomaly.ID, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// gatherContext collects everything the resolvers need. Each source is best
// effort; a failed lookup leaves its summary empty rather than aborting.
func (o *Orchestrator) gatherContext(ctx context.Context, anomaly model.Anomaly) PipelineContext {
	pctx := PipelineContext{
		HistoricalSummary: "No historical data available",
		TrendSummary:      "Insufficient data for trend analysis",
	}

	windowStart := anomaly.DetectedAt.Add(-contextWindow)

	if spec, ok := o.metrics[anomaly.MetricName]; ok && o.repos.Samples != nil {
		samples, err := o.repos.Samples.FetchSamples(ctx, spec.Column, spec.Table, &outbound.TimeRange{
			Start: windowStart,
			End:   anomaly.DetectedAt,
		})
		if err != nil {
			o.logger.Warn("failed to fetch historical samples", "metric", anomaly.MetricName, "error", err)
		} else if len(samples) > 0 {
			pctx.HistoricalSummary = fmt.Sprintf("Historical data shows %d data points", len(samples))
			chars := AnalyzeSeries(samples)
			pctx.TrendSummary = fmt.Sprintf("Metric shows a %s trend with %s volatility over the last 24 hours",
				chars.Trend, chars.Volatility)
		}
	}

	if o.repos.Changes != nil {
		changes, err := o.repos.Changes.FetchChangeEvents(ctx, windowStart, anomaly.DetectedAt)
		if err != nil {
			o.logger.Warn("failed to fetch change events", "error", err)
		} else {
			pctx.RecentChanges = changes
		}
	}

	pctx.Migration = CorrelateChanges(anomaly.DetectedAt, pctx.RecentChanges)
	if pctx.Migration.LikelyCause {
		o.logger.Info("migration likely caused anomaly",
			"anomaly_id", anomaly.ID,
			"summary", pctx.Migration.ImpactSummary,
		)
	}

	return pctx
}

// resolverLabel records which arm an analysis is attributed to.
func (o *Orchestrator) resolverLabel(ctx context.Context) string {
	if o.llm == nil {
		return model.ResolverRuleBased
	}
	info, err := o.llm.ModelInfo(ctx)
	if err != nil || info.Model == "" {
		return model.ResolverRuleBased
	}
	return info.Model
}

// notify sends the analysis digest to the configured channel. Failures are
// logged and swallowed.
func (o *Orchestrator) notify(ctx context.Context, analysis model.AnomalyAnalysis) {
	if o.notifier == nil {
		return
	}

	topRecommendation := ""
	if len(analysis.Recommendations) > 0 {
		topRecommendation = analysis.Recommendations[0].Action
	}

	err := o.notifier.NotifyAnalysis(ctx, outbound.AnalysisNotification{
		AnalysisID:        analysis.ID,
		AnomalyID:         analysis.Anomaly.ID,
		MetricName:        analysis.Anomaly.MetricName,
		AnomalyType:       string(analysis.Anomaly.Type),
		Severity:          string(analysis.Anomaly.Severity),
		RootCause:         analysis.RootCause.PrimaryCause,
		Confidence:        analysis.RootCause.Confidence,
		WhatHappened:      analysis.Summary.WhatHappened,
		TopRecommendation: topRecommendation,
		MigrationDetected: analysis.MigrationDetected(),
	})
	if err != nil {
		o.logger.Warn("failed to send analysis notification", "analysis_id", analysis.ID, "error", err)
	}
}

// predictImpact projects what happens if the anomaly is left unaddressed.
func predictImpact(anomaly model.Anomaly) string {
	switch anomaly.Severity {
	case model.SeverityCritical:
		return "Immediate service disruption likely. User impact imminent."
	case model.SeverityHigh:
		return "Significant degradation expected within hours. Action required soon."
	case model.SeverityMedium:
		return "Gradual degradation over days. Should be addressed proactively."
	case model.SeverityLow:
		return "Minor impact. Monitor for escalation."
	default:
		return "Impact assessment pending"
	}
}
