package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"yieldista/config"
	"yieldista/internal/analysis"
	"yieldista/internal/api"
	"yieldista/internal/cache"
	"yieldista/internal/database"
	"yieldista/internal/extractor"
	"yieldista/internal/httputil"
	"yieldista/internal/market"
	"yieldista/internal/models"
	"yieldista/internal/processor"
	"yieldista/internal/profitability"
	"yieldista/internal/queue"
	"yieldista/internal/retry"
	"yieldista/internal/scheduler"
	"yieldista/internal/search"
	"yieldista/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.WithError(err).Warn("Failed to load .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	site, err := config.LoadSiteProfile(os.Getenv("SITE_PROFILE"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load site profile")
	}
	logger.WithField("site", site.ID).Info("Loaded site profile")

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize store")
	}
	defer store.Close()

	// Analysis pipeline
	clients := httputil.NewClients(cfg.FetchTimeout())
	marketCache := cache.NewMarketCache(cfg.CacheTTL(), logger)
	policy := retry.NewPolicy(cfg.Fetcher.MaxAttempts, cfg.RetryBaseDelay())
	ext := extractor.New(site, logger)
	urlAnalyzer := search.NewAnalyzer(site)
	generator := search.NewGenerator(site, logger)
	marketAnalyzer := market.NewAnalyzer(clients.Scraping, ext, marketCache, policy, logger)
	calculator := profitability.NewCalculator(cfg.Analysis)
	orchestrator := analysis.NewOrchestrator(
		generator, marketAnalyzer, calculator,
		analysis.FixedDelayGate(cfg.PacingDelay()), logger,
	)

	// Persistence pipeline
	recordQueue := queue.NewRecordQueue(100, logger)
	recorder := analysis.NewRecorder(recordQueue, cfg.BatchPersistence.MaxBatchSize, logger)
	persister := processor.NewBatchPersister(store, recordQueue, cfg, logger)
	persister.Start()

	notifier := telegram.NewNotifier(cfg, logger)
	if notifier.Enabled() {
		recordQueue.Subscribe(notifier.NotifyBatch)
		logger.Info("Telegram deal notifications enabled")
	}

	recordQueue.Start()
	defer func() {
		persister.Stop()
		recordQueue.Close()
	}()

	// Recurring jobs
	analyzeSearch := func(ctx context.Context, url string) error {
		sctx := urlAnalyzer.Classify(url)
		properties, err := fetchAndExtract(ctx, clients.Scraping, ext, url)
		if err != nil {
			return err
		}
		orchestrator.Run(ctx, sctx, properties, recorder)
		recorder.Flush()
		return nil
	}
	sched := scheduler.NewScheduler(cfg, marketCache, analyzeSearch, logger)
	if err := sched.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	// HTTP surface
	handler := api.NewHandler(cfg, urlAnalyzer, ext, orchestrator, recorder, marketCache, store, clients.Scraping, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	api.SetupRoutes(router, handler)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced server shutdown")
	}
}

// fetchAndExtract downloads a search page and parses its listing cards.
func fetchAndExtract(ctx context.Context, client *http.Client, ext *extractor.Extractor, url string) ([]models.Property, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httputil.SetBrowserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	return ext.Parse(resp.Body)
}

// openStore selects Postgres when a connection string is configured,
// otherwise the local SQLite file.
func openStore(cfg *config.Config, logger *logrus.Logger) (database.Store, error) {
	if cfg.Database.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Using Postgres store")
		return database.NewPostgresStore(ctx, cfg.Database.PostgresURL, logger)
	}

	logger.Infof("Using SQLite store at: %s", cfg.Database.SQLitePath)
	return database.NewSQLiteStore(cfg.Database.SQLitePath, logger)
}
