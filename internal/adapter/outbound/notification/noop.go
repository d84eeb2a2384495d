package notification

import (
	"context"
	"log/slog"

	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// NoopNotifier is a no-op notifier that logs notifications instead of sending them.
// Used in local development when Slack is not configured.
type NoopNotifier struct {
	logger *slog.Logger
}

// NewNoopNotifier creates a new NoopNotifier.
func NewNoopNotifier(logger *slog.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

var _ outbound.Notifier = (*NoopNotifier)(nil)

func (n *NoopNotifier) NotifyAnalysis(_ context.Context, notification outbound.AnalysisNotification) error {
	n.logger.Info("noop: analysis notification",
		"analysisID", notification.AnalysisID,
		"anomalyID", notification.AnomalyID,
		"metric", notification.MetricName,
		"severity", notification.Severity,
		"rootCause", notification.RootCause,
		"confidence", notification.Confidence,
		"migrationDetected", notification.MigrationDetected,
	)
	return nil
}

func (n *NoopNotifier) HealthCheck(_ context.Context) error {
	return nil
}
