package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for errors.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	validProviders := map[string]bool{"ollama": true, "none": true}
	if !validProviders[cfg.LLM.Provider] {
		errs = append(errs, fmt.Sprintf("llm.provider must be ollama or none (got %q)", cfg.LLM.Provider))
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.Ollama.BaseURL == "" {
		errs = append(errs, "llm.ollama.baseURL is required when provider is ollama")
	}
	if cfg.LLM.ConfidenceThreshold < 0 || cfg.LLM.ConfidenceThreshold > 1 {
		errs = append(errs, "llm.confidenceThreshold must be between 0 and 1")
	}

	validMethods := map[string]bool{"simple_stats": true, "rolling_average": true, "seasonal_decomposition": true}
	if !validMethods[cfg.Baseline.Method] {
		errs = append(errs, fmt.Sprintf("baseline.method must be simple_stats, rolling_average, or seasonal_decomposition (got %q)", cfg.Baseline.Method))
	}
	if cfg.Baseline.LookbackDays <= 0 {
		errs = append(errs, "baseline.lookbackDays must be positive")
	}
	for i, m := range cfg.Baseline.Metrics {
		if m.Name == "" || m.Column == "" || m.Table == "" {
			errs = append(errs, fmt.Sprintf("baseline.metrics[%d] requires name, column, and table", i))
		}
	}

	validDrivers := map[string]bool{"sqlite": true, "kubernetes": true}
	if !validDrivers[cfg.Changes.Driver] {
		errs = append(errs, fmt.Sprintf("changes.driver must be sqlite or kubernetes (got %q)", cfg.Changes.Driver))
	}
	if cfg.Changes.Driver == "kubernetes" && !cfg.Changes.Kubernetes.InCluster && cfg.Changes.Kubernetes.Kubeconfig == "" {
		errs = append(errs, "changes.kubernetes.kubeconfig is required when not running in-cluster")
	}

	if cfg.Database.SQLite.Path == "" {
		errs = append(errs, "database.sqlite.path is required")
	}

	if cfg.Slack.Enabled {
		if cfg.Slack.BotToken == "" {
			errs = append(errs, "slack.botToken is required when slack is enabled")
		}
		if cfg.Slack.Channel == "" {
			errs = append(errs, "slack.channel is required when slack is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
