package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/obesitrack/obesitrack/internal/application/usecase"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
	"github.com/obesitrack/obesitrack/internal/infrastructure/config"
	"github.com/obesitrack/obesitrack/internal/infrastructure/kafka"
	"github.com/obesitrack/obesitrack/internal/infrastructure/messaging"
	"github.com/obesitrack/obesitrack/internal/infrastructure/ml"
	"github.com/obesitrack/obesitrack/internal/infrastructure/postgres"
	grpcpresentation "github.com/obesitrack/obesitrack/internal/presentation/grpc"
	"github.com/obesitrack/obesitrack/internal/presentation/rest"
	pkgkafka "github.com/obesitrack/obesitrack/pkg/kafka"
	"github.com/obesitrack/obesitrack/pkg/observability"
	pkgpostgres "github.com/obesitrack/obesitrack/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load .env if present, then configuration.
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize structured logger via the shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting obesitrack",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"model_mode", cfg.Model.Mode,
	)

	// Initialize tracing.
	shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdown(ctx) }() //nolint:errcheck
	}

	// Database connection.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, pkgpostgres.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Run database migrations.
	migDSN := pkgpostgres.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	}.DSN()
	if migErr := pkgpostgres.RunMigrations(migDSN, "file://internal/infrastructure/postgres/migrations"); migErr != nil {
		logger.Warn("migration warning", "error", migErr)
	}

	// Feature spec and classifier.
	spec := service.NewFeatureSpec()
	if err := spec.Validate(); err != nil {
		logger.Error("invalid feature spec", "error", err)
		os.Exit(1)
	}

	var classifier port.Classifier
	var inspector port.ModelInspector
	var scaler port.FeatureScaler

	switch cfg.Model.Mode {
	case "demo":
		demo := ml.NewDemoClassifier(spec.Width())
		classifier, inspector = demo, demo
		logger.Info("demo classifier enabled, serving BMI-band predictions")
	default:
		result, loadErr := ml.Load(cfg.Model.Dir, spec, logger)
		if loadErr != nil {
			logger.Error("failed to load model artifacts", "error", loadErr, "dir", cfg.Model.Dir)
			os.Exit(1)
		}
		if result == nil {
			unavailable := ml.NewUnavailableClassifier()
			classifier, inspector = unavailable, unavailable
			logger.Warn("model artifacts not found, predictions will be unavailable", "dir", cfg.Model.Dir)
		} else {
			classifier, inspector = result.Classifier, result.Classifier
			scaler = result.Scaler
		}
	}

	// Wire infrastructure adapters and domain services.
	predictionRepo := postgres.NewPredictionRepository(pool)
	contract := service.NewFeatureContract(spec)
	encoder := service.NewFeatureEncoder(spec, scaler)
	recommender := service.NewRecommender()

	// Outbox relay to Kafka.
	if cfg.Kafka.Enabled {
		producer := pkgkafka.NewProducer(pkgkafka.Config{
			Brokers: cfg.Kafka.Brokers,
		})
		defer producer.Close()
		publisher := kafka.NewPublisher(producer, cfg.Kafka.Topic, logger)
		relay := messaging.NewOutboxRelay(
			postgres.NewOutboxRepository(pool),
			publisher,
			cfg.Outbox.PollInterval,
			cfg.Outbox.BatchSize,
			logger,
		)
		go relay.Start(ctx)
	} else {
		logger.Info("kafka disabled, outbox relay not started")
	}

	// Wire use cases.
	predictUC := usecase.NewPredict(contract, encoder, recommender, classifier, predictionRepo,
		cfg.Model.PredictTimeout, cfg.Model.FallbackConfidence)
	historyUC := usecase.NewGetHistory(predictionRepo)
	distributionUC := usecase.NewGetDistribution(predictionRepo)
	statusUC := usecase.NewGetModelStatus(spec, inspector, cfg.Model.FallbackConfidence)
	importanceUC := usecase.NewGetFeatureImportance(spec, inspector)

	// gRPC server.
	grpcHandler := grpcpresentation.NewPredictionServiceHandler(predictUC, statusUC, logger)
	grpcServer := grpcpresentation.NewServer(grpcHandler, cfg.GRPCAddr(), logger)

	// HTTP server.
	httpMux := http.NewServeMux()
	rest.NewHealthHandler(pool, classifier, logger).RegisterRoutes(httpMux)
	rest.NewPredictionHandler(predictUC, historyUC, distributionUC, statusUC, importanceUC, logger).RegisterRoutes(httpMux)

	if _, metricsHandler, metricsErr := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	}); metricsErr != nil {
		logger.Warn("failed to initialize metrics, continuing without /metrics", "error", metricsErr)
	} else {
		httpMux.Handle("GET /metrics", metricsHandler)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("obesitrack is running",
		"grpc_addr", cfg.GRPCAddr(),
		"http_addr", cfg.HTTPAddr(),
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("obesitrack stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
