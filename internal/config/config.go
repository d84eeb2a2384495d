package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Baseline BaselineConfig `yaml:"baseline"`
	Changes  ChangesConfig  `yaml:"changes"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Slack    SlackConfig    `yaml:"slack"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type LLMConfig struct {
	// Provider selects the reasoning backend: "ollama" or "none" for the
	// deterministic rule-based pipeline only.
	Provider            string       `yaml:"provider"`
	ConfidenceThreshold float64      `yaml:"confidenceThreshold"`
	Ollama              OllamaConfig `yaml:"ollama"`
}

type OllamaConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"maxRetries"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
}

type BaselineConfig struct {
	Method                string         `yaml:"method"`
	LookbackDays          int            `yaml:"lookbackDays"`
	UseAIOptimization     bool           `yaml:"useAIOptimization"`
	AIConfidenceThreshold float64        `yaml:"aiConfidenceThreshold"`
	Metrics               []MetricConfig `yaml:"metrics"`
}

type MetricConfig struct {
	Name    string `yaml:"name"`
	Column  string `yaml:"column"`
	Table   string `yaml:"table"`
	Enabled bool   `yaml:"enabled"`
}

type ChangesConfig struct {
	// Driver selects where change events come from: "sqlite" reads the
	// change_events table, "kubernetes" reads Deployment events.
	Driver     string           `yaml:"driver"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
}

type KubernetesConfig struct {
	InCluster  bool   `yaml:"inCluster"`
	Kubeconfig string `yaml:"kubeconfig"`
	Namespace  string `yaml:"namespace"`
}

type WebhookConfig struct {
	Sources   map[string]WebhookSourceConfig `yaml:"sources"`
	RateLimit RateLimitConfig                `yaml:"rateLimit"`
}

type WebhookSourceConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Secret            string `yaml:"secret"`
	ValidateSignature bool   `yaml:"validateSignature"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
}

type SlackConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"botToken"`
	Channel  string `yaml:"channel"`
}

type DatabaseConfig struct {
	SQLite SQLiteConfig `yaml:"sqlite"`
}

type SQLiteConfig struct {
	Path              string `yaml:"path"`
	MaxOpenConns      int    `yaml:"maxOpenConns"`
	PragmaJournalMode string `yaml:"pragmaJournalMode"`
	PragmaBusyTimeout int    `yaml:"pragmaBusyTimeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads a YAML config file and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		LLM: LLMConfig{
			Provider:            "ollama",
			ConfidenceThreshold: 0.75,
			Ollama: OllamaConfig{
				BaseURL:     "http://localhost:11434",
				Model:       "llama3.1:8b",
				Timeout:     120 * time.Second,
				MaxRetries:  3,
				Temperature: 0.3,
				MaxTokens:   2048,
			},
		},
		Baseline: BaselineConfig{
			Method:                "simple_stats",
			LookbackDays:          30,
			UseAIOptimization:     false,
			AIConfidenceThreshold: 0.75,
			Metrics: []MetricConfig{
				{Name: "cpu_utilization", Column: "CPU_Utilization _%_", Table: "cloud_workload_dataset", Enabled: true},
				{Name: "memory_utilization", Column: "Memory_Utilization _%_", Table: "cloud_workload_dataset", Enabled: true},
				{Name: "error_rate", Column: "Error_Rate _%_", Table: "cloud_workload_dataset", Enabled: true},
				{Name: "response_time", Column: "Response_Time _ms_", Table: "cloud_workload_dataset", Enabled: true},
			},
		},
		Changes: ChangesConfig{
			Driver: "sqlite",
			Kubernetes: KubernetesConfig{
				InCluster: true,
			},
		},
		Webhook: WebhookConfig{
			Sources: map[string]WebhookSourceConfig{
				"detector": {Enabled: true},
				"custom":   {Enabled: true},
			},
			RateLimit: RateLimitConfig{Enabled: true, RequestsPerMinute: 120},
		},
		Slack: SlackConfig{
			Enabled: false,
			Channel: "#anomaly-insights",
		},
		Database: DatabaseConfig{
			SQLite: SQLiteConfig{
				Path:              "/data/anomaly-insight.db",
				MaxOpenConns:      1,
				PragmaJournalMode: "wal",
				PragmaBusyTimeout: 5000,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// expandEnvVars replaces ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "${" + key + "}"
	})
}
