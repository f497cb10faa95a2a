package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/api"
	"github.com/pharmaguard-server/internal/archive"
	"github.com/pharmaguard-server/internal/cache"
	"github.com/pharmaguard-server/internal/config"
	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/service"
	"github.com/pharmaguard-server/pkg/genai"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configManager.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	cfg := configManager.GetConfig()

	logger := setupLogger(cfg.Logging)
	logger.Info("Starting PharmaGuard server")

	kb := domain.DefaultKnowledgeBase()

	store, err := newResultStore(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize result archive")
	}
	defer store.Close()

	explanationCache, err := cache.New(cfg.Cache.LRUSize, cfg.Cache.RedisURL, cfg.Cache.DefaultTTL, logger)
	if err != nil {
		// The shared tier is an optimization; run memory-only rather than die.
		logger.WithError(err).Warn("Explanation cache degraded to memory-only")
		explanationCache, err = cache.New(cfg.Cache.LRUSize, "", cfg.Cache.DefaultTTL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize explanation cache")
		}
	}
	defer explanationCache.Close()

	var explanationClient domain.ExplanationClient
	if client := genai.NewClient(genai.Config{
		Endpoint:  cfg.GenAI.Endpoint,
		APIKey:    cfg.GenAI.APIKey,
		Model:     cfg.GenAI.Model,
		RateLimit: cfg.GenAI.RateLimit,
	}, logger); client != nil {
		explanationClient = client
	}

	extractor := service.NewVCFExtractorService(logger, kb)
	inferencer := service.NewPhenotypeInferencerService(logger, kb)
	classifier := service.NewRiskClassifierService(logger, kb)
	explainer := service.NewExplainerService(logger, explanationClient, explanationCache, cfg.GenAI.Timeout)
	analyzer := service.NewAnalyzerService(logger, kb, extractor, inferencer, classifier, explainer, store)

	server := api.NewServer(cfg, logger, analyzer, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("HTTP server listening")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server error")
	}

	logger.Info("Server stopped")
}

// setupLogger configures logrus from the logging section.
func setupLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// newResultStore selects the archive backend by configured driver.
func newResultStore(cfg domain.DatabaseConfig) (domain.ResultStore, error) {
	if strings.ToLower(cfg.Driver) == "postgres" {
		return archive.NewPostgresStoreFromURL(cfg.PostgresURL)
	}
	return archive.NewSQLiteStore(cfg.SQLitePath)
}
