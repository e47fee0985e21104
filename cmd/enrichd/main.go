// Command enrichd runs the report enrichment service: the HTTP ingestion and
// analytics API, the asynchronous enrichment pipeline, and the re-trigger
// poller, in one process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/citypulse/enrichment/internal/analysis"
	"github.com/citypulse/enrichment/internal/api"
	"github.com/citypulse/enrichment/internal/config"
	"github.com/citypulse/enrichment/internal/database"
	"github.com/citypulse/enrichment/internal/logger"
	"github.com/citypulse/enrichment/internal/mlclient"
	"github.com/citypulse/enrichment/internal/normalizer"
	"github.com/citypulse/enrichment/internal/pipeline"
	"github.com/citypulse/enrichment/internal/priority"
	"github.com/citypulse/enrichment/internal/stats"
	"github.com/citypulse/enrichment/internal/storage"
	"github.com/citypulse/enrichment/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "enrichd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting enrichment service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	ctx := context.Background()

	// Database
	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Error closing database connection", logger.Error(closeErr))
		}
	}()
	log.Info("Connected to PostgreSQL",
		logger.String("host", cfg.Database.Host),
		logger.String("database", cfg.Database.Database),
	)

	reportRepo := database.NewReportRepository(db)
	statsRepo := database.NewStatsRepository(db)

	// Optional search index for enriched reports
	var indexer pipeline.Indexer
	if cfg.Elasticsearch.Enabled {
		esStorage, esErr := storage.NewElasticsearchStorage(cfg.Elasticsearch)
		if esErr != nil {
			return fmt.Errorf("failed to create elasticsearch storage: %w", esErr)
		}
		if esErr = esStorage.TestConnection(ctx); esErr != nil {
			return fmt.Errorf("failed to verify elasticsearch connection: %w", esErr)
		}
		log.Info("Connected to Elasticsearch",
			logger.String("url", cfg.Elasticsearch.URL),
			logger.String("index", cfg.Elasticsearch.Index),
		)
		indexer = esStorage
	}

	// Text analysis backend. Initialization failure here is fatal: the
	// service must not come up without a working classifier.
	mlClient := mlclient.NewClient(cfg.Analysis.URL, cfg.Analysis.RequestTimeout)
	catalog := analysis.DefaultCatalog()
	if len(cfg.Analysis.HighPriorityLabels) > 0 || len(cfg.Analysis.OrdinaryLabels) > 0 {
		catalog = analysis.NewCatalog(cfg.Analysis.HighPriorityLabels, cfg.Analysis.OrdinaryLabels)
	}
	analyzer, err := analysis.New(ctx,
		analysis.NewHTTPBackend(mlClient),
		catalog,
		analysis.InitConfig{
			MaxAttempts:   cfg.Analysis.InitMaxAttempts,
			InitialDelay:  cfg.Analysis.InitInitialDelay,
			BackoffFactor: cfg.Analysis.InitBackoffFactor,
		},
		cfg.Analysis.TagThreshold,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize analysis service: %w", err)
	}

	// Metrics and tracing
	provider := telemetry.NewProvider()

	// Pipeline
	pipe := pipeline.New(pipeline.Config{
		Store:      reportRepo,
		Normalizer: normalizer.New(log),
		Analyzer:   analyzer,
		Engine:     priority.NewEngine(catalog),
		Aggregator: stats.NewAggregator(statsRepo, provider.Metrics, log),
		Indexer:    indexer,
		Limiter:    pipeline.NewRateLimiter(cfg.Analysis.RateLimitRPS, cfg.Analysis.RateLimitRPS),
		Metrics:    provider.Metrics,
		Tracer:     provider.Tracer,
		Logger:     log,
	})

	queue := pipeline.NewQueue(pipe, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, provider.Metrics, log)
	if err = queue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline queue: %w", err)
	}
	defer queue.Stop()

	poller := pipeline.NewPoller(reportRepo, queue, pipeline.PollerConfig{
		Interval: cfg.Pipeline.RetriggerInterval,
		StaleAge: cfg.Pipeline.StaleAge,
	}, log)
	if err = poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start re-trigger poller: %w", err)
	}
	defer poller.Stop()

	// HTTP surface
	handler := api.NewHandler(reportRepo, statsRepo, queue, db, mlClient, provider.Metrics, log)
	server := api.NewServer(handler, api.ServerConfig{
		Port:  cfg.Service.Port,
		Debug: cfg.Service.Debug,
	}, log)
	server.Router().GET("/metrics", gin.WrapH(provider.Handler()))

	return server.RunWithGracefulShutdown(ctx)
}
