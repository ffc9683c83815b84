package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/fleetify/report-service/internal/api/handler"
	"github.com/fleetify/report-service/internal/api/router"
	"github.com/fleetify/report-service/internal/config"
	"github.com/fleetify/report-service/internal/fleet"
	"github.com/fleetify/report-service/internal/jobs"
	"github.com/fleetify/report-service/internal/render"
	"github.com/fleetify/report-service/internal/store"
	"github.com/fleetify/report-service/internal/worker"
	"github.com/fleetify/report-service/shared/logger"
	"github.com/fleetify/report-service/shared/postgresql"
	"github.com/fleetify/report-service/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("REPORT_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting report service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Select the job/result store backend
	jobStore, resultStore, storeCleanup, err := initStores(cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	// Wire the pipeline: provider -> renderer -> job service -> worker
	provider := fleet.NewClient(&fleet.Config{
		AnalyticsURL: cfg.Services.AnalyticsURL,
		VehicleURL:   cfg.Services.VehicleURL,
		Timeout:      cfg.Services.Timeout,
	}, appLogger.Logger)

	renderer := render.NewService(provider, appLogger.Logger)

	jobService := jobs.NewService(jobStore, resultStore, rabbitClient, appLogger.Logger)

	reportWorker := worker.NewWorker(&worker.Config{
		Logger:       appLogger.Logger,
		RabbitClient: rabbitClient,
		Jobs:         jobService,
		Renderer:     renderer,
		Concurrency:  cfg.Worker.Concurrency,
		Prefetch:     cfg.RabbitMQ.Consumer.PrefetchCount,
	})

	// Initialize router
	r := initRouter(cfg.App.Environment, appLogger.Logger, jobService, renderer)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		appLogger.Info("Starting HTTP server",
			slog.String("address", addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := reportWorker.Start(ctx); err != nil {
			return fmt.Errorf("worker: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		appLogger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Server forced to shutdown",
				slog.Any("error", err),
			)
		}

		reportWorker.Stop()
		rabbitClient.Close()
		storeCleanup()
		return nil
	})

	// Bound memory growth of the in-process stores
	if ms, ok := jobStore.(*store.MemoryJobStore); ok {
		mrs, _ := resultStore.(*store.MemoryResultStore)
		g.Go(func() error {
			runStoreSweeper(ctx, appLogger.Logger, &cfg.Storage, ms, mrs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	appLogger.Info("Report service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initStores builds the configured store backend. The returned cleanup
// function closes any underlying connection pool.
func initStores(cfg *config.Config, logger *slog.Logger) (store.JobStore, store.ResultStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		dbClient, err := postgresql.NewClient(&postgresql.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx, dbClient.GetDB()); err != nil {
			dbClient.Close()
			return nil, nil, nil, err
		}

		logger.Info("Using postgres job storage")
		return store.NewPostgresJobStore(dbClient.GetDB()),
			store.NewPostgresResultStore(dbClient.GetDB()),
			func() { dbClient.Close() },
			nil

	default:
		logger.Info("Using in-memory job storage")
		return store.NewMemoryJobStore(), store.NewMemoryResultStore(), func() {}, nil
	}
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		QueueMessageTTL:    cfg.Queue.MessageTTL,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, logger *slog.Logger, jobService *jobs.Service, renderer handler.Renderer) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize handler dependencies
	handlerDeps := &handler.Dependencies{
		Logger:   logger,
		Jobs:     jobService,
		Renderer: renderer,
	}

	// Setup router
	return router.SetupRouter(handlerDeps)
}

// runStoreSweeper periodically evicts expired job records and orphaned
// documents from the in-memory stores.
func runStoreSweeper(ctx context.Context, logger *slog.Logger, cfg *config.StorageConfig, jobStore *store.MemoryJobStore, resultStore *store.MemoryResultStore) {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	maxAge := cfg.MaxJobAge
	if maxAge <= 0 {
		maxAge = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removedJobs := jobStore.Cleanup(maxAge)
			removedResults := 0
			if resultStore != nil {
				removedResults = resultStore.Sweep(jobStore.Keys())
			}
			if removedJobs > 0 || removedResults > 0 {
				logger.Info("Swept expired report jobs",
					slog.Int("jobs_removed", removedJobs),
					slog.Int("results_removed", removedResults),
				)
			}
		}
	}
}
