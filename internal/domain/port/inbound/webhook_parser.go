package inbound

import (
	"context"
	"net/http"

	"github.com/jonny/anomaly-insight/internal/domain/model"
)

// WebhookParser turns an incoming HTTP request from an anomaly detector into
// domain anomalies. Implementations are stateless; a registry resolves the
// right parser per request.
type WebhookParser interface {
	// Source returns a stable identifier for the detector this parser handles.
	Source() string
	// CanParse reports whether this parser recognizes the request.
	CanParse(r *http.Request) bool
	// ValidateSignature checks request authentication against the configured
	// secret. A nil error with an empty secret means authentication is disabled.
	ValidateSignature(r *http.Request, secret string) error
	// Parse extracts anomalies from the request payload.
	Parse(ctx context.Context, r *http.Request) ([]model.Anomaly, error)
}
