package inbound

import (
	"context"

	"github.com/jonny/anomaly-insight/internal/domain/model"
)

// AnomalyReceiverPort accepts classified anomalies from upstream detectors
// and runs them through the analysis pipeline.
type AnomalyReceiverPort interface {
	ReceiveAnomaly(ctx context.Context, anomaly model.Anomaly) (model.AnomalyAnalysis, error)
	ReceiveAnomalies(ctx context.Context, anomalies []model.Anomaly) error
}
