package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// PipelineContext is the contextual evidence gathered for one anomaly before
// resolution: historical and trend summaries plus the change-event
// correlation verdict.
type PipelineContext struct {
	HistoricalSummary string
	TrendSummary      string
	RecentChanges     []model.ChangeEvent
	Migration         model.MigrationImpact
}

// RootCauseResolver determines the root cause of an anomaly. The reasoning
// capability is tried first when available; any failure falls back to the
// deterministic rule arm, so Resolve always yields a usable root cause.
type RootCauseResolver struct {
	llm    outbound.LLMProvider
	logger *slog.Logger
}

// NewRootCauseResolver creates a RootCauseResolver. llm may be nil for a
// purely deterministic resolver.
func NewRootCauseResolver(llm outbound.LLMProvider, logger *slog.Logger) *RootCauseResolver {
	return &RootCauseResolver{llm: llm, logger: logger}
}

// Resolve produces the root cause for an anomaly given its gathered context.
func (r *RootCauseResolver) Resolve(ctx context.Context, anomaly model.Anomaly, pctx PipelineContext) model.RootCause {
	if r.llm != nil {
		rc, err := r.llm.AnalyzeRootCause(ctx, outbound.RootCauseRequest{
			Anomaly:           anomaly,
			HistoricalSummary: pctx.HistoricalSummary,
			TrendSummary:      pctx.TrendSummary,
			RecentChanges:     pctx.RecentChanges,
			Migration:         pctx.Migration,
		})
		if err == nil {
			return r.sanitize(rc, pctx)
		}
		r.logger.Warn("root cause analysis failed, using rule-based resolution",
			"anomaly_id", anomaly.ID,
			"error", err,
		)
	}

	return r.ruleBasedRootCause(anomaly, pctx)
}

// sanitize clamps the reported confidence and guarantees the migration
// verdict is carried in the correlation data.
func (r *RootCauseResolver) sanitize(rc model.RootCause, pctx PipelineContext) model.RootCause {
	if rc.Confidence < 0 {
		rc.Confidence = 0
	}
	if rc.Confidence > 1 {
		rc.Confidence = 1
	}
	if _, ok := rc.MigrationImpact(); !ok {
		rc = rc.WithMigrationImpact(pctx.Migration)
	}
	return rc
}

// ruleBasedRootCause derives the root cause from the anomaly type alone.
// Confidence is fixed: the rule arm cannot weigh evidence, so it claims no
// more than moderate certainty.
func (r *RootCauseResolver) ruleBasedRootCause(anomaly model.Anomaly, pctx PipelineContext) model.RootCause {
	var primaryCause string
	var factors []string

	switch anomaly.Type {
	case model.AnomalyTypeStability:
		primaryCause = fmt.Sprintf("Elevated %s indicating system instability", anomaly.MetricName)
		factors = []string{
			"Increased error rate beyond normal thresholds",
			"Potential resource contention",
			"Possible configuration changes",
		}
	case model.AnomalyTypePerformance:
		primaryCause = fmt.Sprintf("Performance degradation in %s", anomaly.MetricName)
		factors = []string{
			"Increased workload or traffic",
			"Resource bottleneck",
			"Inefficient processing",
		}
	case model.AnomalyTypeCost:
		primaryCause = fmt.Sprintf("Unexpected cost increase in %s", anomaly.MetricName)
		factors = []string{
			"Over-provisioned resources",
			"Inefficient resource utilization",
			"Unnecessary redundancy",
		}
	default:
		primaryCause = fmt.Sprintf("Anomalous behavior detected in %s", anomaly.MetricName)
		factors = []string{"Deviation from established baseline"}
	}

	if len(pctx.RecentChanges) > 0 {
		factors = append(factors, "Recent system changes or migrations")
	}

	evidence := []string{
		fmt.Sprintf("Current value (%.2f) deviates %.2f sigma from baseline (%.2f)",
			anomaly.CurrentValue, anomaly.DeviationSigma, anomaly.BaselineValue),
		fmt.Sprintf("Deviation represents %.1f%% change", anomaly.DeviationPercentage),
		fmt.Sprintf("Confidence level: %.0f%%", anomaly.Confidence*100),
	}

	return model.RootCause{
		PrimaryCause:        primaryCause,
		ContributingFactors: factors,
		Confidence:          0.75,
		Evidence:            evidence,
	}
}
