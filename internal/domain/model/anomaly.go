package model

import "time"

type AnomalyType string

const (
	AnomalyTypeStability   AnomalyType = "stability"
	AnomalyTypePerformance AnomalyType = "performance"
	AnomalyTypeCost        AnomalyType = "cost"
	AnomalyTypeResource    AnomalyType = "resource"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Anomaly is an already-classified deviation produced by an upstream
// detector. It is immutable once created; this service only reads it.
type Anomaly struct {
	ID                  string            `json:"anomaly_id"`
	DetectedAt          time.Time         `json:"detected_at"`
	MetricName          string            `json:"metric_name"`
	MetricType          string            `json:"metric_type"`
	CurrentValue        float64           `json:"current_value"`
	BaselineValue       float64           `json:"baseline_value"`
	DeviationSigma      float64           `json:"deviation_sigma"`
	DeviationPercentage float64           `json:"deviation_percentage"`
	Type                AnomalyType       `json:"anomaly_type"`
	Severity            Severity          `json:"severity"`
	Confidence          float64           `json:"confidence"`
	AffectedResources   []string          `json:"affected_resources,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// NewAnomaly creates an Anomaly with a generated ID and detection timestamp.
// Detectors that carry their own IDs should set them on the returned value.
func NewAnomaly(metricName, metricType string, anomalyType AnomalyType, severity Severity) Anomaly {
	return Anomaly{
		ID:         generateID(),
		DetectedAt: time.Now().UTC(),
		MetricName: metricName,
		MetricType: metricType,
		Type:       anomalyType,
		Severity:   severity,
	}
}

// Increased reports whether the current value sits above the baseline.
func (a Anomaly) Increased() bool {
	return a.CurrentValue > a.BaselineValue
}

// IsUrgent reports whether the anomaly severity warrants immediate attention.
func (a Anomaly) IsUrgent() bool {
	return a.Severity == SeverityCritical || a.Severity == SeverityHigh
}
