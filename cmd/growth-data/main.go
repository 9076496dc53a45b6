package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/common/database"
	"github.com/reponseashimwe/ml-pipeline-database/internal/common/logger"
	"github.com/reponseashimwe/ml-pipeline-database/internal/common/mqtt"
	rediscommon "github.com/reponseashimwe/ml-pipeline-database/internal/common/redis"
	"github.com/reponseashimwe/ml-pipeline-database/internal/config"
	"github.com/reponseashimwe/ml-pipeline-database/internal/diagnosis"
	"github.com/reponseashimwe/ml-pipeline-database/internal/events"
	httpapi "github.com/reponseashimwe/ml-pipeline-database/internal/http"
	"github.com/reponseashimwe/ml-pipeline-database/internal/repository"
	"github.com/reponseashimwe/ml-pipeline-database/internal/service"
	"github.com/reponseashimwe/ml-pipeline-database/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	shutdownGrace      = 5 * time.Second
	redisKeyNamespace  = "growth:"
	memoryCacheEntries = 10000
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "growth-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		if c, err := rediscommon.Connect(ctx, &cfg.Redis); err != nil {
			log.Warn("Redis unreachable, classifier cache and stream events disabled", zap.Error(err))
		} else {
			redisClient = c
			defer rediscommon.Close(redisClient)
		}
	}

	classifier := buildClassifier(cfg, redisClient, log)
	publisher := buildPublisher(cfg, redisClient, log)
	defer publisher.Close()

	ledger := service.NewLedger(diagnosis.NewDeriver(classifier), nil, log)
	childSvc := service.NewChildService(st, ledger, service.UUIDGenerator{}, publisher, log)
	measurementSvc := service.NewMeasurementService(st, ledger, publisher, log)
	diagnosisSvc := service.NewDiagnosisService(st, log)

	router := httpapi.NewRouter(log)
	router.RegisterGrowthRoutes(
		httpapi.NewChildrenHandler(childSvc, measurementSvc, log),
		httpapi.NewMeasurementsHandler(measurementSvc, log),
		httpapi.NewDiagnosisHandler(diagnosisSvc, log),
	)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)
	if err := srv.Run(ctx, shutdownGrace); err != nil {
		log.Error("HTTP server failed", zap.Error(err))
	}
}

// openStore returns the Postgres store when DB_ENABLED, failing when it cannot be reached.
// The in-memory store is used only when the database is disabled.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if !cfg.DBEnabled {
		log.Warn("DB_ENABLED=false, serving from the in-memory store; records are lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("DB enabled but unreachable: %w", err)
	}
	log.Info("DB enabled for growth-data", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))
	if cfg.DBAutoMigrate {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			database.Close(db)
			return nil, nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return repository.NewPostgresStore(db), func() { database.Close(db) }, nil
}

// buildClassifier: model service when CLASSIFIER_URL is set, else the reference table.
// Results are cached in redis when it is up, in process otherwise.
func buildClassifier(cfg *config.Config, redisClient *redis.Client, log *zap.Logger) diagnosis.Classifier {
	var c diagnosis.Classifier = diagnosis.ReferenceClassifier{}
	if cfg.Classifier.URL != "" {
		c = diagnosis.NewHTTPClassifier(cfg.Classifier.URL, cfg.Classifier.Timeout, cfg.Classifier.RetryCount, log)
		log.Info("Using remote stunting classifier", zap.String("url", cfg.Classifier.URL))
	} else {
		log.Info("CLASSIFIER_URL not set, using reference classifier")
	}
	if cfg.Classifier.CacheTTL <= 0 {
		return c
	}

	var kv store.KV
	if redisClient != nil {
		kv = store.NewRedisKV(redisClient, redisKeyNamespace)
	} else {
		kv = store.NewMemoryKV(memoryCacheEntries)
	}
	return diagnosis.NewCachedClassifier(c, kv, cfg.Classifier.CacheTTL, log)
}

func buildPublisher(cfg *config.Config, redisClient *redis.Client, log *zap.Logger) events.Publisher {
	switch cfg.Events.Sink {
	case config.SinkRedis:
		if redisClient == nil {
			log.Warn("EVENTS_SINK=redis but redis is not available, events disabled")
			return events.NopPublisher{}
		}
		return events.NewRedisStreamPublisher(redisClient, cfg.Events.Stream, cfg.Events.StreamMaxLen, log)
	case config.SinkMQTT:
		client, err := mqtt.NewClient(&cfg.Events.MQTT, log)
		if err != nil {
			log.Warn("MQTT connection failed, events disabled", zap.Error(err))
			return events.NopPublisher{}
		}
		return events.NewMQTTPublisher(client, cfg.Events.MQTT.Topic, cfg.Events.MQTT.QoS, log)
	}
	return events.NopPublisher{}
}
