package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/datacite/events/config"
	doirepo "github.com/datacite/events/internal/repositories/doi"
	enrichmentrepo "github.com/datacite/events/internal/repositories/enrichment"
	eventrepo "github.com/datacite/events/internal/repositories/event"
	"github.com/datacite/events/pkg/database"
	"github.com/datacite/events/pkg/enrichments"
	"github.com/datacite/events/pkg/events"
	"github.com/datacite/events/pkg/httpclient"
	"github.com/datacite/events/pkg/indexing"
	"github.com/datacite/events/pkg/kafka"
	"github.com/datacite/events/pkg/middleware"
	"github.com/datacite/events/pkg/processor"
	"github.com/datacite/events/pkg/redis"
	doiroutes "github.com/datacite/events/pkg/routes/doi"
	eventroutes "github.com/datacite/events/pkg/routes/event"
	"github.com/datacite/events/pkg/routes/health"
	"github.com/datacite/events/pkg/search"
	"github.com/datacite/events/pkg/tracing"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.AppName),
			semconv.ServiceVersion(version),
		)),
	)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(otel.Tracer(cfg.AppName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to shut down tracer provider")
		}
	}()

	db, err := database.Connect(ctx, database.Config{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, database.MigrationConfig{
		FolderPath:   cfg.DatabaseMigrationFolderPath,
		DatabaseName: cfg.DatabaseName,
	}, logger); err != nil {
		logger.WithError(err).Error("Failed to run migrations")
		os.Exit(1)
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, publication year caching disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	searchClient, err := search.NewClient(ctx, search.Config{
		Addresses: cfg.SearchAddresses,
		Username:  cfg.SearchUsername,
		Password:  cfg.SearchPassword,
		Index:     cfg.SearchIndex,
	}, logger)
	if err != nil {
		// Indexing is best-effort; ingestion runs without it.
		logger.WithError(err).Warn("Search cluster unavailable, indexing disabled")
		searchClient = nil
	}

	eventRepo := eventrepo.New(db, logger)
	doiRepo := doirepo.New(db, redisClient, logger)
	enrichRepo := enrichmentrepo.New(db, logger)

	httpClient := httpclient.NewClient(httpclient.DefaultConfig(), logger)
	enrichService := enrichments.NewService(enrichRepo, httpClient, cfg.DataCiteAPIURL, logger)

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.LifecycleTopic(),
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()

	emitter := events.NewEmitter(producer, logger)

	var dispatcher processor.IndexDispatcher
	if searchClient != nil {
		dispatcher = indexing.NewDispatcher(indexing.NewBuilder(doiRepo), searchClient, eventRepo, logger)
	}

	proc := processor.NewProcessor(logger, eventRepo, emitter, dispatcher)

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		consumer = kafka.NewConsumer(cfg, logger, proc.ProcessMessage)
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start consumer")
			os.Exit(1)
		}
	}

	registerDependencies(logger, eventRepo, enrichService)

	var searchPinger health.Pinger
	if searchClient != nil {
		searchPinger = searchClient
	}
	var redisPinger health.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	checker := health.NewChecker(db, redisPinger, searchPinger, version)

	e := newServer(cfg, logger, checker)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server stopped")
			os.Exit(1)
		}
	}()
	checker.SetReady(true)

	<-ctx.Done()
	logger.Info("Shutting down")
	checker.SetReady(false)

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop consumer")
		}
	}
	proc.WaitForDispatches()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down server")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func registerDependencies(logger ectologger.Logger, eventRepo *eventrepo.Repository, enrichService *enrichments.Service) {
	container, err := ectoinject.NewDIContainer(ectoinject.DefaultContainerConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to create DI container")
		os.Exit(1)
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		logger.WithError(err).Error("Failed to register logger")
		os.Exit(1)
	}
	if err := ectoinject.RegisterInstance[*eventrepo.Repository](container, eventRepo); err != nil {
		logger.WithError(err).Error("Failed to register event repository")
		os.Exit(1)
	}
	if err := ectoinject.RegisterInstance[*enrichments.Service](container, enrichService); err != nil {
		logger.WithError(err).Error("Failed to register enrichment service")
		os.Exit(1)
	}
}

func newServer(cfg config.Config, logger ectologger.Logger, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	eventroutes.Register(e.Group("/api/v1/events"))
	doiroutes.Register(e.Group("/api/v1/dois"))

	return e
}
