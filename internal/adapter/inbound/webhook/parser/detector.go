package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonny/anomaly-insight/internal/domain/model"
)

// detectorPayload is the native payload of the anomaly detection pipeline:
// either a batch under "anomalies" or a single anomaly object.
type detectorPayload struct {
	Anomalies []model.Anomaly `json:"anomalies"`
}

// DetectorParser parses payloads from the statistical anomaly detector, which
// emits anomalies in the domain JSON shape.
type DetectorParser struct{}

// NewDetectorParser creates a new DetectorParser.
func NewDetectorParser() *DetectorParser {
	return &DetectorParser{}
}

// Source returns the source identifier for detector anomalies.
func (d *DetectorParser) Source() string {
	return "detector"
}

// CanParse returns true if the request carries the detector header or targets
// a detector path.
func (d *DetectorParser) CanParse(r *http.Request) bool {
	if r.Header.Get("X-Anomaly-Detector") != "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.URL.Path), "detector")
}

// ValidateSignature validates a Bearer token in the Authorization header.
// Returns nil when no secret is configured (authentication disabled).
func (d *DetectorParser) ValidateSignature(r *http.Request, secret string) error {
	return validateBearerToken(r, secret)
}

// Parse extracts anomalies from a detector payload, accepting both the batch
// and single-anomaly forms. Missing IDs and detection timestamps are filled.
func (d *DetectorParser) Parse(_ context.Context, r *http.Request) ([]model.Anomaly, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("detector: failed to decode JSON: %w", err)
	}

	var payload detectorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("detector: failed to decode payload: %w", err)
	}

	anomalies := payload.Anomalies
	if anomalies == nil {
		var single model.Anomaly
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("detector: failed to decode anomaly: %w", err)
		}
		anomalies = []model.Anomaly{single}
	}

	for i := range anomalies {
		if err := normalizeAnomaly(&anomalies[i]); err != nil {
			return nil, fmt.Errorf("detector: anomaly %d: %w", i, err)
		}
	}
	return anomalies, nil
}

// normalizeAnomaly validates required fields and fills defaults.
func normalizeAnomaly(a *model.Anomaly) error {
	if a.MetricName == "" {
		return fmt.Errorf("missing required field 'metric_name'")
	}
	if a.Type == "" {
		return fmt.Errorf("missing required field 'anomaly_type'")
	}
	if a.ID == "" {
		a.ID = model.NewID()
	}
	if a.DetectedAt.IsZero() {
		a.DetectedAt = time.Now().UTC()
	}
	if a.Severity == "" {
		a.Severity = model.SeverityMedium
	}
	return nil
}

// validateBearerToken is shared by parsers that authenticate with a static
// Bearer token.
func validateBearerToken(r *http.Request, secret string) error {
	if secret == "" {
		return nil
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return fmt.Errorf("invalid Authorization header format")
	}
	if strings.TrimSpace(parts[1]) != secret {
		return fmt.Errorf("invalid bearer token")
	}
	return nil
}
