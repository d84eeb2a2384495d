package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonny/anomaly-insight/internal/adapter/outbound/llm/prompt"
	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
	"github.com/jonny/anomaly-insight/pkg/jsontext"
)

// Config holds configuration for the Ollama client.
type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

// Client implements outbound.LLMProvider using the Ollama API. Failures are
// reported through the model error taxonomy: transport and server problems
// wrap ErrCapabilityUnavailable, unparseable or incomplete payloads wrap
// ErrMalformedResponse.
type Client struct {
	config     Config
	httpClient *http.Client
	builder    *prompt.Builder
}

// NewClient creates a new Ollama Client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	builder, err := prompt.NewBuilder()
	if err != nil {
		return nil, fmt.Errorf("creating prompt builder: %w", err)
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		builder:    builder,
	}, nil
}

// --- Ollama API types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// tagsResponse is returned by GET /api/tags.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// --- model response payloads ---

type rootCausePayload struct {
	PrimaryCause        string                     `json:"primary_cause"`
	ContributingFactors []string                   `json:"contributing_factors"`
	Confidence          float64                    `json:"confidence"`
	Evidence            []string                   `json:"evidence"`
	CorrelationData     map[string]json.RawMessage `json:"correlation_data"`
}

type recommendationsPayload struct {
	Recommendations []recommendationPayload `json:"recommendations"`
}

type recommendationPayload struct {
	Priority            string   `json:"priority"`
	Action              string   `json:"action"`
	Rationale           string   `json:"rationale"`
	ExpectedImpact      string   `json:"expected_impact"`
	ImplementationSteps []string `json:"implementation_steps"`
	EstimatedEffort     string   `json:"estimated_effort"`
	RiskLevel           string   `json:"risk_level"`
	CostImpact          string   `json:"cost_impact"`
}

type methodPayload struct {
	RecommendedMethod string  `json:"recommended_method"`
	Confidence        float64 `json:"confidence"`
	Reasoning         string  `json:"reasoning"`
	Parameters        struct {
		LookbackDays int `json:"lookback_days"`
	} `json:"parameters"`
}

// --- LLMProvider implementation ---

// AnalyzeRootCause renders the root cause prompt, calls Ollama, and maps the
// JSON payload into a RootCause.
func (c *Client) AnalyzeRootCause(ctx context.Context, req outbound.RootCauseRequest) (model.RootCause, error) {
	changesJSON, err := json.Marshal(req.RecentChanges)
	if err != nil {
		return model.RootCause{}, fmt.Errorf("encoding recent changes: %w", err)
	}
	migrationJSON, err := json.Marshal(req.Migration)
	if err != nil {
		return model.RootCause{}, fmt.Errorf("encoding migration analysis: %w", err)
	}

	promptText, err := c.builder.BuildRootCausePrompt(prompt.RootCauseInput{
		AnomalyType:         string(req.Anomaly.Type),
		MetricName:          req.Anomaly.MetricName,
		CurrentValue:        req.Anomaly.CurrentValue,
		BaselineValue:       req.Anomaly.BaselineValue,
		DeviationSigma:      req.Anomaly.DeviationSigma,
		DeviationPercentage: req.Anomaly.DeviationPercentage,
		Severity:            string(req.Anomaly.Severity),
		DetectedAt:          req.Anomaly.DetectedAt.Format(time.RFC3339),
		HistoricalSummary:   req.HistoricalSummary,
		TrendSummary:        req.TrendSummary,
		RecentChangesJSON:   string(changesJSON),
		MigrationJSON:       string(migrationJSON),
	})
	if err != nil {
		return model.RootCause{}, fmt.Errorf("building root cause prompt: %w", err)
	}

	raw, err := c.doChat(ctx, promptText)
	if err != nil {
		return model.RootCause{}, err
	}

	var payload rootCausePayload
	if err := jsontext.Extract(raw, &payload); err != nil {
		return model.RootCause{}, fmt.Errorf("%w: root cause: %v", model.ErrMalformedResponse, err)
	}
	if payload.PrimaryCause == "" {
		return model.RootCause{}, fmt.Errorf("%w: missing primary_cause", model.ErrMalformedResponse)
	}

	return model.RootCause{
		PrimaryCause:        payload.PrimaryCause,
		ContributingFactors: payload.ContributingFactors,
		Confidence:          payload.Confidence,
		Evidence:            payload.Evidence,
		CorrelationData:     decodeCorrelationData(payload.CorrelationData),
	}, nil
}

// GenerateRecommendations renders the recommendations prompt and maps the
// resulting list. Unset risk levels default to low.
func (c *Client) GenerateRecommendations(ctx context.Context, req outbound.RecommendationRequest) ([]model.Recommendation, error) {
	promptText, err := c.builder.BuildRecommendationsPrompt(prompt.RecommendationsInput{
		AnomalyType:         string(req.Anomaly.Type),
		Severity:            string(req.Anomaly.Severity),
		MetricName:          req.Anomaly.MetricName,
		DeviationPercentage: req.Anomaly.DeviationPercentage,
		PrimaryCause:        req.RootCause.PrimaryCause,
		ContributingFactors: strings.Join(req.RootCause.ContributingFactors, ", "),
		ConfidencePct:       req.RootCause.Confidence * 100,
		Guidance:            typeGuidance(req.Anomaly.Type),
	})
	if err != nil {
		return nil, fmt.Errorf("building recommendations prompt: %w", err)
	}

	raw, err := c.doChat(ctx, promptText)
	if err != nil {
		return nil, err
	}

	var payload recommendationsPayload
	if err := jsontext.Extract(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: recommendations: %v", model.ErrMalformedResponse, err)
	}

	recs := make([]model.Recommendation, 0, len(payload.Recommendations))
	for _, r := range payload.Recommendations {
		if r.Action == "" {
			continue
		}
		risk := r.RiskLevel
		if risk == "" {
			risk = "low"
		}
		recs = append(recs, model.Recommendation{
			Priority:            model.Severity(strings.ToLower(r.Priority)),
			Action:              r.Action,
			Rationale:           r.Rationale,
			ExpectedImpact:      r.ExpectedImpact,
			ImplementationSteps: r.ImplementationSteps,
			EstimatedEffort:     r.EstimatedEffort,
			RiskLevel:           risk,
			CostImpact:          r.CostImpact,
		})
	}
	return recs, nil
}

// RecommendMethod renders the method selection prompt and maps the result.
func (c *Client) RecommendMethod(ctx context.Context, req outbound.MethodSelectionRequest) (model.MethodRecommendation, error) {
	promptText, err := c.builder.BuildMethodSelectionPrompt(prompt.MethodSelectionInput{
		MetricName:    req.MetricName,
		SampleCount:   req.Characteristics.SampleCount,
		Mean:          req.Characteristics.Mean,
		StdDev:        req.Characteristics.StdDev,
		CV:            req.Characteristics.CV,
		Trend:         req.Characteristics.Trend,
		TrendSlope:    req.Characteristics.TrendSlope,
		Volatility:    req.Characteristics.Volatility,
		Distribution:  req.Characteristics.Distribution,
		Skewness:      req.Characteristics.Skewness,
		Min:           req.Characteristics.Min,
		Max:           req.Characteristics.Max,
		CurrentMethod: req.CurrentMethod,
	})
	if err != nil {
		return model.MethodRecommendation{}, fmt.Errorf("building method selection prompt: %w", err)
	}

	raw, err := c.doChat(ctx, promptText)
	if err != nil {
		return model.MethodRecommendation{}, err
	}

	var payload methodPayload
	if err := jsontext.Extract(raw, &payload); err != nil {
		return model.MethodRecommendation{}, fmt.Errorf("%w: method selection: %v", model.ErrMalformedResponse, err)
	}
	if payload.RecommendedMethod == "" {
		return model.MethodRecommendation{}, fmt.Errorf("%w: missing recommended_method", model.ErrMalformedResponse)
	}

	return model.MethodRecommendation{
		Method:       payload.RecommendedMethod,
		LookbackDays: payload.Parameters.LookbackDays,
		Confidence:   payload.Confidence,
		Reasoning:    payload.Reasoning,
	}, nil
}

// HealthCheck performs GET /api/tags to verify Ollama is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := c.config.BaseURL + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrCapabilityUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check status %d", model.ErrCapabilityUnavailable, resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decoding tags response: %w", err)
	}
	return nil
}

// ModelInfo returns metadata about the configured model.
func (c *Client) ModelInfo(_ context.Context) (outbound.ModelInfo, error) {
	return outbound.ModelInfo{
		Provider: "ollama",
		Model:    c.config.Model,
	}, nil
}

var _ outbound.LLMProvider = (*Client)(nil)

// --- internal helpers ---

// doChat sends a single-message chat request with retry for transient errors.
func (c *Client) doChat(ctx context.Context, promptText string) (string, error) {
	body := chatRequest{
		Model:    c.config.Model,
		Messages: []chatMessage{{Role: "user", Content: promptText}},
		Stream:   false,
		Options: chatOptions{
			Temperature: c.config.Temperature,
			NumPredict:  c.config.MaxTokens,
		},
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	maxRetries := c.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		raw, err := c.postChat(ctx, encoded)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", model.ErrCapabilityUnavailable, ctx.Err())
		}
	}
	return "", lastErr
}

func (c *Client) postChat(ctx context.Context, body []byte) (string, error) {
	url := c.config.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrCapabilityUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", model.ErrCapabilityUnavailable, resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decoding chat response: %v", model.ErrMalformedResponse, err)
	}

	return chatResp.Message.Content, nil
}

// decodeCorrelationData converts the raw correlation block into the domain
// shape, giving migration_analysis its typed form so downstream consumers
// can extract it.
func decodeCorrelationData(raw map[string]json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	data := make(map[string]any, len(raw))
	for key, value := range raw {
		if key == "migration_analysis" {
			var impact model.MigrationImpact
			if err := json.Unmarshal(value, &impact); err == nil {
				data[key] = impact
				continue
			}
		}
		var generic any
		if err := json.Unmarshal(value, &generic); err == nil {
			data[key] = generic
		}
	}
	return data
}

// typeGuidance returns the per-type focus block for the recommendations
// prompt. Types without specific guidance get none.
func typeGuidance(anomalyType model.AnomalyType) string {
	switch anomalyType {
	case model.AnomalyTypeStability:
		return `STABILITY ISSUE - Focus on:
- How to restore system stability
- Preventing cascading failures
- Improving error handling and resilience
- Monitoring and alerting improvements`
	case model.AnomalyTypePerformance:
		return `PERFORMANCE ISSUE - Focus on:
- How to improve response times
- Optimizing resource utilization
- Scaling strategies
- Caching and optimization opportunities`
	case model.AnomalyTypeCost:
		return `COST OPTIMIZATION - Focus on:
- Cost-saving opportunities
- Right-sizing resources
- Eliminating waste
- WHY changes won't negatively impact performance
- Cost-benefit analysis`
	default:
		return ""
	}
}
