package outbound

import "context"

// AnalysisNotification is the digest of a completed analysis sent to a
// messaging channel.
type AnalysisNotification struct {
	AnalysisID        string
	AnomalyID         string
	MetricName        string
	AnomalyType       string
	Severity          string
	RootCause         string
	Confidence        float64
	WhatHappened      string
	TopRecommendation string
	MigrationDetected bool
}

// Notifier delivers analysis results to users. Delivery is best effort; the
// pipeline never fails because a notification could not be sent.
type Notifier interface {
	NotifyAnalysis(ctx context.Context, notification AnalysisNotification) error
	HealthCheck(ctx context.Context) error
}
