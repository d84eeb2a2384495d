package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// RecommendationEngine produces remediation recommendations for an analyzed
// anomaly. Like root-cause resolution, the reasoning capability is preferred
// and a deterministic catalog serves as the fallback.
type RecommendationEngine struct {
	llm    outbound.LLMProvider
	logger *slog.Logger
}

// NewRecommendationEngine creates a RecommendationEngine. llm may be nil.
func NewRecommendationEngine(llm outbound.LLMProvider, logger *slog.Logger) *RecommendationEngine {
	return &RecommendationEngine{llm: llm, logger: logger}
}

// Generate returns prioritized recommendations for the anomaly. An empty
// reasoning result counts as a failure and falls back to the catalog.
func (g *RecommendationEngine) Generate(ctx context.Context, anomaly model.Anomaly, rootCause model.RootCause) []model.Recommendation {
	if g.llm != nil {
		recs, err := g.llm.GenerateRecommendations(ctx, outbound.RecommendationRequest{
			Anomaly:   anomaly,
			RootCause: rootCause,
		})
		if err == nil && len(recs) > 0 {
			return recs
		}
		g.logger.Warn("recommendation generation failed, using rule-based catalog",
			"anomaly_id", anomaly.ID,
			"error", err,
		)
	}

	return ruleBasedRecommendations(anomaly)
}

// ruleBasedRecommendations returns the fixed per-type catalog. Anomaly types
// without a catalog entry yield no recommendations.
func ruleBasedRecommendations(anomaly model.Anomaly) []model.Recommendation {
	switch anomaly.Type {
	case model.AnomalyTypeStability:
		return []model.Recommendation{
			{
				Priority:       model.SeverityHigh,
				Action:         fmt.Sprintf("Investigate and address elevated %s", anomaly.MetricName),
				Rationale:      "High error rates indicate system instability that requires immediate attention",
				ExpectedImpact: "Restore system stability and prevent cascading failures",
				ImplementationSteps: []string{
					"Review recent logs for error patterns",
					"Check for resource constraints",
					"Verify configuration changes",
					"Implement additional error handling",
				},
				EstimatedEffort: "30-60 minutes",
				RiskLevel:       "low",
			},
			{
				Priority:       model.SeverityMedium,
				Action:         "Implement enhanced monitoring and alerting",
				Rationale:      "Early detection prevents issues from escalating",
				ExpectedImpact: "Faster incident response and reduced downtime",
				ImplementationSteps: []string{
					"Set up alerts for error rate thresholds",
					"Configure log aggregation",
					"Create dashboard for key metrics",
				},
				EstimatedEffort: "1-2 hours",
				RiskLevel:       "low",
			},
		}

	case model.AnomalyTypePerformance:
		return []model.Recommendation{
			{
				Priority:       model.SeverityHigh,
				Action:         "Optimize resource allocation",
				Rationale:      "Performance degradation often indicates resource bottlenecks",
				ExpectedImpact: "Improve response times by 20-40%",
				ImplementationSteps: []string{
					"Analyze resource utilization patterns",
					"Identify bottlenecks (CPU, memory, I/O)",
					"Scale resources appropriately",
					"Implement caching where applicable",
				},
				EstimatedEffort: "1-3 hours",
				RiskLevel:       "medium",
			},
			{
				Priority:       model.SeverityMedium,
				Action:         "Review and optimize queries/operations",
				Rationale:      "Inefficient operations compound under load",
				ExpectedImpact: "Reduce latency and improve throughput",
				ImplementationSteps: []string{
					"Profile slow operations",
					"Optimize database queries",
					"Implement connection pooling",
					"Add appropriate indexes",
				},
				EstimatedEffort: "2-4 hours",
				RiskLevel:       "low",
			},
		}

	case model.AnomalyTypeCost:
		return []model.Recommendation{
			{
				Priority:       model.SeverityHigh,
				Action:         "Right-size over-provisioned resources",
				Rationale:      "Resources are allocated beyond actual usage requirements",
				ExpectedImpact: "Reduce costs by 20-40% without performance impact",
				ImplementationSteps: []string{
					"Analyze actual resource utilization",
					"Identify over-provisioned instances",
					"Gradually reduce resource allocation",
					"Monitor performance during changes",
				},
				EstimatedEffort: "1-2 hours",
				RiskLevel:       "low",
				CostImpact:      "Performance will not be affected because current utilization is well below provisioned capacity",
			},
			{
				Priority:       model.SeverityMedium,
				Action:         "Implement auto-scaling policies",
				Rationale:      "Match resource allocation to actual demand",
				ExpectedImpact: "Optimize costs while maintaining performance",
				ImplementationSteps: []string{
					"Define scaling metrics and thresholds",
					"Configure auto-scaling groups",
					"Set minimum and maximum limits",
					"Test scaling behavior",
				},
				EstimatedEffort: "2-3 hours",
				RiskLevel:       "medium",
				CostImpact:      "Save 30-50% on compute costs during low-traffic periods",
			},
		}
	}

	return nil
}
