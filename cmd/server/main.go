package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sathyaincampus/software-engineering-agents/internal/api"
	"github.com/sathyaincampus/software-engineering-agents/internal/config"
	"github.com/sathyaincampus/software-engineering-agents/internal/extract"
	"github.com/sathyaincampus/software-engineering-agents/internal/health"
	"github.com/sathyaincampus/software-engineering-agents/internal/llm"
	"github.com/sathyaincampus/software-engineering-agents/internal/metrics"
	"github.com/sathyaincampus/software-engineering-agents/internal/orchestrator"
	"github.com/sathyaincampus/software-engineering-agents/internal/pipeline"
	"github.com/sathyaincampus/software-engineering-agents/internal/retry"
	"github.com/sathyaincampus/software-engineering-agents/internal/storage"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("http_port", cfg.HTTPPort).
		Str("data_dir", cfg.DataDir).
		Bool("llm_enabled", cfg.LLMEnabled()).
		Msg("starting pipeline backend")

	store, err := storage.NewStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init project storage")
	}

	orch := orchestrator.New(store, orchestrator.NewMemorySessionService(), logger)

	checker := health.NewChecker(logger)
	checker.Register("storage", health.StorageCheck(store.BaseDir()))

	metricsCollector := metrics.New()

	catalog, err := llm.LoadCatalog(cfg.ModelCatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load model catalog")
	}

	// Register stage agents only when a model is configured; the project
	// routes work without one
	if cfg.LLMEnabled() {
		factory := llm.NewFactory(logger)
		provider, err := factory.Provider(cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init model provider")
		}
		if !catalog.Has("google", cfg.ModelName) {
			logger.Warn().Str("model", cfg.ModelName).Msg("model not in catalog")
		}
		logger.Info().
			Str("model", cfg.ModelName).
			Str("api_key", llm.MaskAPIKey(cfg.GeminiAPIKey)).
			Msg("model provider initialized")

		for _, role := range llm.Roles {
			agent := llm.NewAgent(role.Name, role.Description, role.Instruction, provider)
			agent.Temperature = cfg.Temperature
			orch.RegisterHandler(role.Name, agent)
		}
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set, agent routes disabled")
	}

	runner := pipeline.NewRunner(orch, store, extract.New(cfg.RawOutputLimit), retry.Config{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
	}, metricsCollector, logger)

	handlers := api.NewHandlers(orch, runner, store, catalog, checker, logger)

	server := api.NewServer(api.ServerConfig{
		ListenAddr: fmt.Sprintf(":%d", cfg.HTTPPort),
		AuthConfig: api.AuthConfig{
			Mode:   cfg.AuthMode(),
			APIKey: cfg.APIKey,
		},
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: strings.Join(cfg.CORSOriginList(), ","),
	}, handlers, metricsCollector, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("api server error")
		}
	}

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("api server shutdown error")
	}

	logger.Info().Msg("pipeline backend stopped")
}
