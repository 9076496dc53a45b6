package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "github.com/reponseashimwe/ml-pipeline-database/internal/common/config"

	"github.com/joho/godotenv"
)

// Event sinks
const (
	SinkNone  = "none"
	SinkRedis = "redis"
	SinkMQTT  = "mqtt"
)

// Config growth-data (HTTP API)
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled     bool
	DBAutoMigrate bool
	Database      commoncfg.DatabaseConfig

	RedisEnabled bool
	Redis        commoncfg.RedisConfig

	Log struct {
		Level  string
		Format string
	}

	Classifier ClassifierConfig
	Events     EventsConfig
}

// ClassifierConfig URL empty means the built-in reference classifier
type ClassifierConfig struct {
	URL        string
	Timeout    time.Duration
	RetryCount int
	CacheTTL   time.Duration
}

// EventsConfig where status changes are published
type EventsConfig struct {
	Sink         string
	Stream       string
	StreamMaxLen int64
	MQTT         commoncfg.MQTTConfig
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.DBAutoMigrate = getEnv("DB_AUTO_MIGRATE", "true") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Password:        "postgres",
		Database:        "growth",
		SSLMode:         "disable",
		MaxConns:        25,
		MaxIdle:         5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnectTimeout:  5 * time.Second,
	}
	if err := cfg.Database.LoadFromEnv("DB"); err != nil {
		return nil, err
	}

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379", DialTimeout: 5 * time.Second}
	if err := cfg.Redis.LoadFromEnv("REDIS"); err != nil {
		return nil, err
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Classifier.URL = getEnv("CLASSIFIER_URL", "")
	cfg.Classifier.Timeout = time.Duration(parseInt(getEnv("CLASSIFIER_TIMEOUT_SECONDS", "10"), 10)) * time.Second
	cfg.Classifier.RetryCount = parseInt(getEnv("CLASSIFIER_RETRY_COUNT", "0"), 0)
	cfg.Classifier.CacheTTL = time.Duration(parseInt(getEnv("CLASSIFIER_CACHE_TTL_SECONDS", "3600"), 3600)) * time.Second

	cfg.Events.Sink = getEnv("EVENTS_SINK", SinkNone)
	cfg.Events.Stream = getEnv("EVENTS_STREAM", "child-status")
	cfg.Events.StreamMaxLen = int64(parseInt(getEnv("EVENTS_STREAM_MAXLEN", "10000"), 10000))
	cfg.Events.MQTT = commoncfg.MQTTConfig{
		Broker:         "tcp://localhost:1883",
		ClientID:       "growth-data",
		Topic:          "growth/child-status",
		QoS:            1,
		PublishTimeout: 5 * time.Second,
	}
	if err := cfg.Events.MQTT.LoadFromEnv("MQTT"); err != nil {
		return nil, err
	}
	switch cfg.Events.Sink {
	case SinkNone, SinkRedis, SinkMQTT:
	default:
		return nil, fmt.Errorf("unknown EVENTS_SINK %q", cfg.Events.Sink)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
