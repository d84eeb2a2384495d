package model

import "time"

// Resolver identities recorded on an analysis.
const (
	ResolverRuleBased = "rule-based"
)

// correlationMigrationKey is where resolvers store the MigrationImpact inside
// RootCause.CorrelationData.
const correlationMigrationKey = "migration_analysis"

// RootCause captures the outcome of root-cause resolution. Produced once per
// analysis; immutable.
type RootCause struct {
	PrimaryCause        string         `json:"primary_cause"`
	ContributingFactors []string       `json:"contributing_factors"`
	Confidence          float64        `json:"confidence"`
	Evidence            []string       `json:"evidence"`
	CorrelationData     map[string]any `json:"correlation_data,omitempty"`
}

// WithMigrationImpact returns a copy of the root cause with the migration
// analysis embedded in its correlation data.
func (rc RootCause) WithMigrationImpact(impact MigrationImpact) RootCause {
	data := make(map[string]any, len(rc.CorrelationData)+1)
	for k, v := range rc.CorrelationData {
		data[k] = v
	}
	data[correlationMigrationKey] = impact
	rc.CorrelationData = data
	return rc
}

// MigrationImpact extracts the embedded migration analysis, if any.
func (rc RootCause) MigrationImpact() (MigrationImpact, bool) {
	impact, ok := rc.CorrelationData[correlationMigrationKey].(MigrationImpact)
	return impact, ok
}

// Recommendation is a single prioritized remediation item.
type Recommendation struct {
	Priority            Severity `json:"priority"`
	Action              string   `json:"action"`
	Rationale           string   `json:"rationale"`
	ExpectedImpact      string   `json:"expected_impact"`
	ImplementationSteps []string `json:"implementation_steps,omitempty"`
	EstimatedEffort     string   `json:"estimated_effort,omitempty"`
	RiskLevel           string   `json:"risk_level"`
	CostImpact          string   `json:"cost_impact,omitempty"`
}

// HumanReadableSummary is the plain-language explanation of an analysis for
// non-technical audiences.
type HumanReadableSummary struct {
	WhatHappened     string `json:"what_happened"`
	WhyItHappened    string `json:"why_it_happened"`
	Impact           string `json:"what_is_the_impact"`
	Improvements     string `json:"what_improvements_can_be_made"`
	EstimatedBenefit string `json:"estimated_benefit_if_implemented"`
}

// AnomalyAnalysis is the terminal artifact of the pipeline: one anomaly, one
// root cause, ordered recommendations (priority-descending as emitted by the
// resolver), the narrative summary, and pipeline metadata.
type AnomalyAnalysis struct {
	ID                string               `json:"analysis_id"`
	Anomaly           Anomaly              `json:"anomaly"`
	RootCause         RootCause            `json:"root_cause"`
	Recommendations   []Recommendation     `json:"recommendations"`
	Summary           HumanReadableSummary `json:"summary"`
	ResolverUsed      string               `json:"ai_model_used"`
	DurationMs        int64                `json:"analysis_duration_ms"`
	HistoricalContext string               `json:"historical_context,omitempty"`
	TrendAnalysis     string               `json:"trend_analysis,omitempty"`
	PredictedImpact   string               `json:"predicted_impact,omitempty"`
	AnalyzedAt        time.Time            `json:"analyzed_at"`
}

// NewAnalysis creates an AnomalyAnalysis shell for the given anomaly.
func NewAnalysis(anomaly Anomaly) AnomalyAnalysis {
	return AnomalyAnalysis{
		ID:         generateID(),
		Anomaly:    anomaly,
		AnalyzedAt: time.Now().UTC(),
	}
}

// MigrationDetected reports whether the root cause carries a migration
// analysis that identified change events as the likely cause.
func (a AnomalyAnalysis) MigrationDetected() bool {
	impact, ok := a.RootCause.MigrationImpact()
	return ok && impact.LikelyCause
}

// MigrationSummary returns the embedded migration impact summary, if any.
func (a AnomalyAnalysis) MigrationSummary() string {
	impact, ok := a.RootCause.MigrationImpact()
	if !ok {
		return ""
	}
	return impact.ImpactSummary
}
