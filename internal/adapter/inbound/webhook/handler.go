package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/jonny/anomaly-insight/internal/adapter/inbound/webhook/parser"
	"github.com/jonny/anomaly-insight/internal/domain/port/inbound"
	"github.com/jonny/anomaly-insight/pkg/apierror"
)

// WebhookSourceConfig holds per-source configuration for a webhook endpoint.
type WebhookSourceConfig struct {
	// Secret is the Bearer token expected from this source.
	Secret string
	// ValidateSignature controls whether authentication is enforced.
	ValidateSignature bool
}

// Handler is the main HTTP handler for incoming anomaly webhooks.
type Handler struct {
	registry      *parser.Registry
	receiver      inbound.AnomalyReceiverPort
	sourceConfigs map[string]WebhookSourceConfig
}

// NewHandler creates a new Handler with the given registry, receiver, and per-source configs.
func NewHandler(
	registry *parser.Registry,
	receiver inbound.AnomalyReceiverPort,
	sourceConfigs map[string]WebhookSourceConfig,
) *Handler {
	return &Handler{
		registry:      registry,
		receiver:      receiver,
		sourceConfigs: sourceConfigs,
	}
}

// ServeHTTP handles an incoming webhook request:
// 1. Resolves the correct parser for the request.
// 2. Optionally validates authentication using the source config.
// 3. Parses the payload into anomalies.
// 4. Runs a single anomaly synchronously, or a batch through the batch path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.Resolve(r)
	if err != nil {
		apierror.BadRequest("unsupported webhook source").Write(w)
		return
	}

	cfg, hasCfg := h.sourceConfigs[p.Source()]
	if hasCfg && cfg.ValidateSignature {
		if err := p.ValidateSignature(r, cfg.Secret); err != nil {
			apierror.Unauthorized("authentication failed").Write(w)
			return
		}
	}

	anomalies, err := p.Parse(r.Context(), r)
	if err != nil {
		apierror.BadRequest("failed to parse webhook payload").Write(w)
		return
	}

	if len(anomalies) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if len(anomalies) == 1 {
		analysis, err := h.receiver.ReceiveAnomaly(r.Context(), anomalies[0])
		if err != nil {
			apierror.Internal("failed to analyze anomaly").Write(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"analysis_id":   analysis.ID,
			"anomaly_id":    analysis.Anomaly.ID,
			"ai_model_used": analysis.ResolverUsed,
		})
		return
	}

	if err := h.receiver.ReceiveAnomalies(r.Context(), anomalies); err != nil {
		apierror.Internal("failed to analyze anomalies").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"accepted": len(anomalies),
	})
}
