package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonny/anomaly-insight/internal/adapter/inbound/webhook"
	"github.com/jonny/anomaly-insight/internal/adapter/inbound/webhook/parser"
	"github.com/jonny/anomaly-insight/internal/adapter/outbound/kubernetes"
	"github.com/jonny/anomaly-insight/internal/adapter/outbound/llm/ollama"
	"github.com/jonny/anomaly-insight/internal/adapter/outbound/notification"
	slacknotifier "github.com/jonny/anomaly-insight/internal/adapter/outbound/notification/slack"
	"github.com/jonny/anomaly-insight/internal/adapter/outbound/persistence/sqlite"
	"github.com/jonny/anomaly-insight/internal/config"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
	"github.com/jonny/anomaly-insight/internal/domain/service"
	"github.com/jonny/anomaly-insight/pkg/health"
	"github.com/jonny/anomaly-insight/pkg/version"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	printVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = buildLogger(cfg.Logging)

	// --- Database ---
	store, err := sqlite.NewStore(sqlite.Config{
		Path:              cfg.Database.SQLite.Path,
		MaxOpenConns:      cfg.Database.SQLite.MaxOpenConns,
		PragmaJournalMode: cfg.Database.SQLite.PragmaJournalMode,
		PragmaBusyTimeout: cfg.Database.SQLite.PragmaBusyTimeout,
	})
	if err != nil {
		logger.Error("failed to open sqlite store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// --- Repositories ---
	sampleRepo := sqlite.NewSampleRepo(store)
	baselineRepo := sqlite.NewBaselineRepo(store)
	analysisRepo := sqlite.NewAnalysisRepo(store)

	var changeReader outbound.ChangeEventReader = sqlite.NewChangeEventRepo(store)
	if cfg.Changes.Driver == "kubernetes" {
		clientset, err := kubernetes.NewClientset(cfg.Changes.Kubernetes.InCluster, cfg.Changes.Kubernetes.Kubeconfig)
		if err != nil {
			logger.Error("failed to create kubernetes clientset", "error", err)
			os.Exit(1)
		}
		changeReader = kubernetes.NewEventReader(clientset, cfg.Changes.Kubernetes.Namespace)
	}

	repos := service.Repositories{
		Samples:  sampleRepo,
		Changes:  changeReader,
		Analyses: analysisRepo,
	}

	// --- LLM ---
	var llmClient outbound.LLMProvider
	if cfg.LLM.Provider == "ollama" {
		client, err := ollama.NewClient(ollama.Config{
			BaseURL:     cfg.LLM.Ollama.BaseURL,
			Model:       cfg.LLM.Ollama.Model,
			Timeout:     cfg.LLM.Ollama.Timeout,
			MaxRetries:  cfg.LLM.Ollama.MaxRetries,
			Temperature: cfg.LLM.Ollama.Temperature,
			MaxTokens:   cfg.LLM.Ollama.MaxTokens,
		})
		if err != nil {
			logger.Error("failed to create LLM client", "error", err)
			os.Exit(1)
		}
		llmClient = client
	} else {
		logger.Info("reasoning provider disabled; running rule-based only")
	}

	// --- Notifier ---
	var notifier outbound.Notifier
	if cfg.Slack.Enabled {
		notifier = slacknotifier.NewNotifier(slacknotifier.Config{
			BotToken: cfg.Slack.BotToken,
			Channel:  cfg.Slack.Channel,
		})
	} else {
		notifier = notification.NewNoopNotifier(logger)
	}

	// --- Domain services ---
	metrics := make([]service.MetricSpec, 0, len(cfg.Baseline.Metrics))
	for _, m := range cfg.Baseline.Metrics {
		metrics = append(metrics, service.MetricSpec{
			Name:    m.Name,
			Column:  m.Column,
			Table:   m.Table,
			Enabled: m.Enabled,
		})
	}

	optimizer := service.NewMethodOptimizer(llmClient, cfg.Baseline.UseAIOptimization, cfg.Baseline.AIConfidenceThreshold, logger)
	baselineEngine := service.NewBaselineEngine(sampleRepo, baselineRepo, optimizer, cfg.Baseline.Method, cfg.Baseline.LookbackDays, logger)
	resolver := service.NewRootCauseResolver(llmClient, logger)
	recommender := service.NewRecommendationEngine(llmClient, logger)
	orchestrator := service.NewOrchestrator(resolver, recommender, notifier, llmClient, repos, metrics, logger)

	// --- Webhook ---
	reg := parser.NewRegistry()
	reg.Register(parser.NewDetectorParser())
	reg.Register(parser.NewGenericParser())

	sourceConfigs := make(map[string]webhook.WebhookSourceConfig)
	for name, src := range cfg.Webhook.Sources {
		if src.Enabled {
			sourceConfigs[name] = webhook.WebhookSourceConfig{
				Secret:            src.Secret,
				ValidateSignature: src.ValidateSignature || src.Secret != "",
			}
		}
	}

	// --- Health checker ---
	checker := health.NewChecker()
	checker.Register("database", func(ctx context.Context) error {
		return store.DB.PingContext(ctx)
	})
	if llmClient != nil {
		checker.Register("llm", func(ctx context.Context) error {
			return llmClient.HealthCheck(ctx)
		})
	}
	if cfg.Slack.Enabled {
		checker.Register("slack", func(ctx context.Context) error {
			return notifier.HealthCheck(ctx)
		})
	}

	webhookHandler := webhook.NewHandler(reg, orchestrator, sourceConfigs)
	serverCfg := webhook.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if cfg.Webhook.RateLimit.Enabled {
		serverCfg.RateLimitPerMinute = cfg.Webhook.RateLimit.RequestsPerMinute
	}
	webhookServer := webhook.NewServerWithLogger(serverCfg, webhookHandler, checker, slog.NewLogLogger(logger.Handler(), slog.LevelInfo))

	// --- Signal handling & startup ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Webhook HTTP server.
	g.Go(func() error {
		logger.Info("starting webhook server", "port", cfg.Server.Port)
		return webhookServer.Start(gCtx)
	})

	// Baseline computation: once at startup, then daily.
	g.Go(func() error {
		computeBaselines(gCtx, baselineEngine, metrics, logger)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				computeBaselines(gCtx, baselineEngine, metrics, logger)
			}
		}
	})

	logger.Info("anomaly-insight started", "version", version.String())

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("anomaly-insight stopped")
}

// computeBaselines refreshes baselines for all configured metrics. Failures
// are logged; the service keeps serving with the previous baselines.
func computeBaselines(ctx context.Context, engine *service.BaselineEngine, metrics []service.MetricSpec, logger *slog.Logger) {
	baselines, err := engine.ComputeAll(ctx, metrics)
	if err != nil {
		logger.Warn("baseline computation incomplete", "error", err)
	}
	logger.Info("baselines computed", "count", len(baselines))
}

// buildLogger constructs a slog.Logger based on config.
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
