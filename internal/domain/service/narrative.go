package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jonny/anomaly-insight/internal/domain/model"
)

// metricLabels maps raw metric names to the wording used in summaries.
// Unknown metrics fall back to the name with underscores spaced out.
var metricLabels = map[string]string{
	"error_rate":          "error rate",
	"task_execution_time": "task completion time",
	"cpu_utilization":     "CPU usage",
	"memory_usage":        "memory usage",
	"request_latency":     "response time",
	"compute_cost":        "computing costs",
	"throughput":          "processing speed",
}

var priorityMarkers = map[string]string{
	"critical": "\U0001F534",
	"high":     "\U0001F7E0",
	"medium":   "\U0001F7E1",
	"low":      "\U0001F7E2",
}

// NarrativeComposer renders an analysis into plain language for
// non-technical readers. It is stateless and purely derived from its inputs.
type NarrativeComposer struct{}

// Compose builds the five-part summary: what happened, why, the impact, the
// recommended improvements, and the expected benefit.
func (NarrativeComposer) Compose(
	anomaly model.Anomaly,
	rootCause model.RootCause,
	recommendations []model.Recommendation,
) model.HumanReadableSummary {
	return model.HumanReadableSummary{
		WhatHappened:     explainWhatHappened(anomaly),
		WhyItHappened:    explainWhyItHappened(rootCause),
		Impact:           explainImpact(anomaly),
		Improvements:     explainImprovements(recommendations),
		EstimatedBenefit: explainBenefits(anomaly, recommendations),
	}
}

func metricLabel(metricName string) string {
	if label, ok := metricLabels[strings.ToLower(metricName)]; ok {
		return label
	}
	return strings.ReplaceAll(metricName, "_", " ")
}

// formatMetricValue renders a value using units implied by the metric type:
// percentages, dollar amounts, milliseconds, or a bare number.
func formatMetricValue(value float64, metricType string) string {
	lower := strings.ToLower(metricType)
	switch {
	case strings.Contains(lower, "rate") || strings.Contains(metricType, "%"):
		return fmt.Sprintf("%.1f%%", value)
	case strings.Contains(lower, "cost") || strings.Contains(lower, "usd"):
		return "$" + money(value)
	case strings.Contains(lower, "time") || strings.Contains(lower, "ms"):
		return fmt.Sprintf("%.0fms", value)
	default:
		return fmt.Sprintf("%.1f", value)
	}
}

// money renders a dollar amount with thousands separators and two decimals.
func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func explainWhatHappened(anomaly model.Anomaly) string {
	label := metricLabel(anomaly.MetricName)

	direction, comparison := "decreased", "lower than"
	if anomaly.Increased() {
		direction, comparison = "increased", "higher than"
	}

	current := formatMetricValue(anomaly.CurrentValue, anomaly.MetricType)
	baseline := formatMetricValue(anomaly.BaselineValue, anomaly.MetricType)

	explanation := fmt.Sprintf(
		"We detected an unusual spike in your system's %s. "+
			"The %s %s to %s, which is %.0f%% %s the normal level of %s. "+
			"This change is significant - it's %.1f times larger than typical variations we see.",
		label, label, direction, current,
		math.Abs(anomaly.DeviationPercentage), comparison, baseline,
		anomaly.DeviationSigma,
	)

	switch n := len(anomaly.AffectedResources); {
	case n == 1:
		explanation += " This issue is affecting 1 resource in your system."
	case n > 1:
		explanation += fmt.Sprintf(" This issue is affecting %d resources in your system.", n)
	}

	return explanation
}

func explainWhyItHappened(rootCause model.RootCause) string {
	var b strings.Builder
	b.WriteString(rootCause.PrimaryCause)

	if len(rootCause.ContributingFactors) > 0 {
		b.WriteString("\n\nSeveral factors contributed to this issue:\n")
		for i, factor := range topN(rootCause.ContributingFactors, 3) {
			fmt.Fprintf(&b, "%d. %s\n", i+1, factor)
		}
	}

	if len(rootCause.Evidence) > 0 {
		b.WriteString("\nWe identified this by observing:\n")
		for _, ev := range topN(rootCause.Evidence, 3) {
			fmt.Fprintf(&b, "• %s\n", ev)
		}
	}

	if impact, ok := rootCause.MigrationImpact(); ok && impact.LikelyCause {
		b.WriteString("\n**Migration Event Detected:**\n")
		b.WriteString(impact.ImpactSummary)
		if len(impact.ImpactFactors) > 0 {
			b.WriteString("\n\nSpecific changes that may have caused this:\n")
			for _, factor := range topN(impact.ImpactFactors, 3) {
				fmt.Fprintf(&b, "• %s\n", factor)
			}
		}
	}

	pct := rootCause.Confidence * 100
	var confidence string
	switch {
	case pct >= 90:
		confidence = "very confident"
	case pct >= 75:
		confidence = "confident"
	case pct >= 60:
		confidence = "reasonably confident"
	default:
		confidence = "moderately confident"
	}
	fmt.Fprintf(&b, "\nWe are %s (%.0f%%) in this assessment based on the available data.", confidence, pct)

	return strings.TrimSpace(b.String())
}

func explainImpact(anomaly model.Anomaly) string {
	impact := impactNarrative(anomaly)
	if impact == "" {
		impact = "This anomaly is affecting your system's normal operation and should be investigated."
	}

	if anomaly.IsUrgent() {
		impact += "\n\nTime is critical: The longer this issue persists, the greater the potential for " +
			"business disruption, user dissatisfaction, and financial impact."
	}

	return impact
}

// impactNarrative returns the canned type-and-severity impact paragraph, or
// "" when no paragraph exists for the combination.
func impactNarrative(anomaly model.Anomaly) string {
	switch anomaly.Type {
	case model.AnomalyTypeStability:
		switch anomaly.Severity {
		case model.SeverityCritical:
			return "Your system is experiencing critical stability issues that could lead to complete service outages. " +
				"Users may be unable to access your services, and data integrity could be at risk. " +
				"This requires immediate attention to prevent business disruption."
		case model.SeverityHigh:
			return "Your system's reliability is significantly degraded. Users are likely experiencing errors and " +
				"service interruptions. If not addressed quickly, this could escalate to a complete outage and damage user trust."
		case model.SeverityMedium:
			return "Your system is showing signs of instability. Some users may experience occasional errors or " +
				"degraded service. While not critical yet, this should be addressed soon to prevent escalation."
		case model.SeverityLow:
			return "Minor stability issues detected. Most users won't notice any problems, but monitoring is " +
				"recommended to ensure it doesn't worsen."
		}

	case model.AnomalyTypePerformance:
		switch anomaly.Severity {
		case model.SeverityCritical:
			return "Your system is running extremely slowly, severely impacting user experience. Users are likely " +
				"abandoning tasks due to long wait times. This is causing significant business impact and potential revenue loss."
		case model.SeverityHigh:
			return "Performance has degraded noticeably. Users are experiencing slow response times that are " +
				"frustrating and may lead to reduced engagement or lost business opportunities."
		case model.SeverityMedium:
			return "System performance is slower than normal. While still functional, users may notice delays that " +
				"could affect their satisfaction and productivity."
		case model.SeverityLow:
			return "Minor performance degradation detected. Most users won't notice significant differences, but " +
				"efficiency could be improved."
		}

	case model.AnomalyTypeCost:
		current := money(anomaly.CurrentValue)
		baseline := money(anomaly.BaselineValue)
		pct := math.Abs(anomaly.DeviationPercentage)
		switch anomaly.Severity {
		case model.SeverityCritical:
			return fmt.Sprintf("Your computing costs have spiked dramatically to $%s, which is %.0f%% higher than "+
				"your normal spending of $%s. This represents significant unexpected expenses that could impact your budget.",
				current, pct, baseline)
		case model.SeverityHigh:
			return fmt.Sprintf("Computing costs have increased substantially to $%s, exceeding your normal budget "+
				"by %.0f%%. This is causing unnecessary financial waste that should be addressed.",
				current, pct)
		case model.SeverityMedium:
			return fmt.Sprintf("Your costs have risen to $%s, which is %.0f%% above normal. While not critical, "+
				"this represents inefficient resource usage that could be optimized.",
				current, pct)
		case model.SeverityLow:
			return "Costs are slightly elevated but within acceptable ranges. However, optimization opportunities " +
				"exist to improve efficiency."
		}

	case model.AnomalyTypeResource:
		switch anomaly.Severity {
		case model.SeverityCritical:
			return "System resources are critically overloaded. This could lead to crashes, data loss, or complete " +
				"service failure. Immediate action is required to prevent system collapse."
		case model.SeverityHigh:
			return "Resources are heavily strained. The system is at risk of becoming unstable or unresponsive. " +
				"Performance degradation is likely affecting users."
		case model.SeverityMedium:
			return "Resource usage is higher than normal. While the system is still functioning, there's reduced " +
				"capacity to handle additional load or unexpected spikes."
		case model.SeverityLow:
			return "Resource usage is slightly elevated. The system is stable but could benefit from optimization " +
				"to improve efficiency."
		}
	}

	return ""
}

func explainImprovements(recommendations []model.Recommendation) string {
	if len(recommendations) == 0 {
		return "We're still analyzing the best course of action. Please check back shortly for specific recommendations."
	}

	var b strings.Builder
	b.WriteString("Based on our analysis, here are the actions we recommend:\n\n")

	for _, rec := range topN(recommendations, 4) {
		marker, ok := priorityMarkers[strings.ToLower(string(rec.Priority))]
		if !ok {
			marker = "•"
		}

		fmt.Fprintf(&b, "%s **%s PRIORITY**: %s\n", marker, strings.ToUpper(string(rec.Priority)), rec.Action)
		fmt.Fprintf(&b, "   Why: %s\n", rec.Rationale)

		if len(rec.ImplementationSteps) > 0 {
			b.WriteString("   How to do it:\n")
			for _, step := range topN(rec.ImplementationSteps, 3) {
				fmt.Fprintf(&b, "   • %s\n", step)
			}
		}

		if rec.EstimatedEffort != "" {
			fmt.Fprintf(&b, "   Time needed: %s\n", rec.EstimatedEffort)
		}

		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

func explainBenefits(anomaly model.Anomaly, recommendations []model.Recommendation) string {
	if len(recommendations) == 0 {
		return "Benefits will be determined once specific recommendations are available."
	}

	var benefits []string

	switch anomaly.Type {
	case model.AnomalyTypeStability:
		benefits = append(benefits,
			"**Improved Reliability**: By implementing these recommendations, you can expect to significantly reduce errors "+
				"and restore system stability to normal levels. This means fewer service interruptions and improved user experience.",
			"**Reduced Downtime**: Proactive fixes will help prevent potential outages, reducing downtime and "+
				"the associated costs of lost productivity and revenue.",
		)

	case model.AnomalyTypePerformance:
		// The baseline is the only number certain enough to quote.
		benefits = append(benefits,
			fmt.Sprintf("**Faster Response Times**: These optimizations will help bring response times back toward "+
				"normal levels (baseline: %.0fms). The exact improvement will depend on "+
				"implementation and system conditions.", anomaly.BaselineValue),
			"**Better User Experience**: Faster systems lead to higher user satisfaction and increased engagement. "+
				"Performance improvements typically result in better business outcomes.",
		)

	case model.AnomalyTypeCost:
		excess := anomaly.CurrentValue - anomaly.BaselineValue
		monthly := excess * 30
		benefits = append(benefits,
			fmt.Sprintf("**Quantifiable Cost Savings**: By right-sizing resources and eliminating waste, you can save "+
				"**$%s per day** (approximately **$%s per month**). "+
				"This is based on returning to your baseline cost of $%s.",
				money(excess), money(monthly), money(anomaly.BaselineValue)),
		)

		mentionsPerformance := false
		for _, rec := range recommendations {
			if rec.CostImpact != "" && strings.Contains(strings.ToLower(rec.CostImpact), "performance") {
				mentionsPerformance = true
				break
			}
		}
		if mentionsPerformance {
			benefits = append(benefits,
				"**No Performance Trade-off**: Our analysis shows that these cost optimizations can be implemented "+
					"without negatively impacting system performance. You'll save money while maintaining the same level of service.")
		} else {
			benefits = append(benefits,
				"**Improved Efficiency**: These changes will optimize resource usage, reducing waste while maintaining "+
					"or improving system performance.")
		}

	case model.AnomalyTypeResource:
		benefits = append(benefits,
			"**Better Resource Utilization**: Optimizing resource usage will free up capacity for growth, improve system "+
				"stability, and reduce the risk of resource-related failures.",
			"**Cost Efficiency**: Better resource management will lead to cost savings while improving "+
				"overall system performance and reliability. Specific savings will depend on implementation.",
		)
	}

	if anomaly.IsUrgent() {
		benefits = append(benefits,
			"**Quick Wins**: Many of these improvements can be implemented quickly (within hours to days) and will "+
				"show immediate positive results.")
	}

	benefits = append(benefits,
		"**Long-term Stability**: Addressing this issue now prevents it from recurring and establishes better "+
			"practices for system health monitoring and maintenance.")

	return strings.Join(benefits, "\n\n")
}

func topN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
