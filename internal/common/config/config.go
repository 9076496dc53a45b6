package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

// MQTTConfig MQTT broker settings
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	Topic          string
	QoS            byte
	PublishTimeout time.Duration
}

// GetDSN builds a lib/pq keyword/value connection string
func (c *DatabaseConfig) GetDSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
	if secs := int(c.ConnectTimeout / time.Second); secs > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", secs)
	}
	return dsn
}

// LoadFromEnv overrides fields from <prefix>_HOST, <prefix>_PORT, ...
func (c *DatabaseConfig) LoadFromEnv(prefix string) error {
	e := envReader{prefix: prefix}
	e.str("HOST", &c.Host)
	e.int("PORT", &c.Port)
	e.str("USER", &c.User)
	e.str("PASSWORD", &c.Password)
	e.str("NAME", &c.Database)
	e.str("SSLMODE", &c.SSLMode)
	e.int("MAX_CONNS", &c.MaxConns)
	e.int("MAX_IDLE", &c.MaxIdle)
	e.seconds("CONN_MAX_LIFETIME_SECONDS", &c.ConnMaxLifetime)
	e.seconds("CONNECT_TIMEOUT_SECONDS", &c.ConnectTimeout)
	return e.err
}

// LoadFromEnv overrides fields from <prefix>_ADDR, <prefix>_PASSWORD, <prefix>_DB, ...
func (c *RedisConfig) LoadFromEnv(prefix string) error {
	e := envReader{prefix: prefix}
	e.str("ADDR", &c.Addr)
	e.str("PASSWORD", &c.Password)
	e.int("DB", &c.DB)
	e.int("POOL_SIZE", &c.PoolSize)
	e.seconds("DIAL_TIMEOUT_SECONDS", &c.DialTimeout)
	return e.err
}

// LoadFromEnv overrides fields from <prefix>_BROKER, <prefix>_CLIENT_ID, ...
func (c *MQTTConfig) LoadFromEnv(prefix string) error {
	e := envReader{prefix: prefix}
	e.str("BROKER", &c.Broker)
	e.str("CLIENT_ID", &c.ClientID)
	e.str("USERNAME", &c.Username)
	e.str("PASSWORD", &c.Password)
	e.str("TOPIC", &c.Topic)
	e.seconds("PUBLISH_TIMEOUT_SECONDS", &c.PublishTimeout)

	qos := int(c.QoS)
	e.int("QOS", &qos)
	if e.err == nil && (qos < 0 || qos > 2) {
		e.err = fmt.Errorf("%s_QOS must be 0, 1 or 2, got %d", prefix, qos)
	}
	if e.err == nil {
		c.QoS = byte(qos)
	}
	return e.err
}

// envReader applies <prefix>_<key> variables that are set and keeps the first parse error
type envReader struct {
	prefix string
	err    error
}

func (e *envReader) lookup(key string) (string, string, bool) {
	name := e.prefix + "_" + key
	v := os.Getenv(name)
	return name, v, v != ""
}

func (e *envReader) str(key string, dst *string) {
	if _, v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	name, v, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
		return
	}
	*dst = n
}

func (e *envReader) seconds(key string, dst *time.Duration) {
	n := -1
	e.int(key, &n)
	if n >= 0 {
		*dst = time.Duration(n) * time.Second
	}
}
