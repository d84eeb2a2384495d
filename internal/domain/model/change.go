package model

import "time"

// Resource requirement keys recognized in ChangeEvent.ResourceRequirements.
const (
	ResourceCPUIncrease    = "cpu_increase"
	ResourceMemoryIncrease = "memory_increase"
)

// ChangeEvent is a recorded migration, deployment, or configuration change.
// Events are read-only inputs to correlation; this service never creates them.
// Optional fields (UserCountChange, ResourceRequirements) are treated as
// absent when zero or nil.
type ChangeEvent struct {
	ID                   string             `json:"migration_id"`
	Type                 string             `json:"type"`
	Timestamp            time.Time          `json:"timestamp"`
	SourceSystem         string             `json:"source"`
	TargetSystem         string             `json:"target"`
	UserCountChange      int                `json:"user_count_change,omitempty"`
	ResourceRequirements map[string]float64 `json:"resource_requirements,omitempty"`
	Description          string             `json:"description,omitempty"`
	Status               string             `json:"status"`
}

// RelatedChange is a change event retained by the correlation engine, with
// the derived timing and potential-impact notes that made it relevant.
type RelatedChange struct {
	Event              ChangeEvent `json:"migration"`
	HoursBeforeAnomaly float64     `json:"time_before_anomaly_hours"`
	PotentialImpact    []string    `json:"potential_impact"`
}

// MigrationImpact is the correlation engine's verdict on whether recent
// change events explain an anomaly.
type MigrationImpact struct {
	LikelyCause    bool            `json:"likely_cause"`
	RelatedChanges []RelatedChange `json:"related_migrations"`
	ImpactSummary  string          `json:"impact_summary"`
	ImpactFactors  []string        `json:"impact_factors,omitempty"`
}
