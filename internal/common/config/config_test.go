package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := &DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "growth", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=growth sslmode=disable", c.GetDSN())

	c.ConnectTimeout = 5 * time.Second
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=growth sslmode=disable connect_timeout=5", c.GetDSN())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("T_HOST", "pg")
	t.Setenv("T_PORT", "6000")
	t.Setenv("T_MAX_CONNS", "9")
	t.Setenv("T_CONN_MAX_LIFETIME_SECONDS", "300")
	db := &DatabaseConfig{Host: "localhost", Port: 5432}
	require.NoError(t, db.LoadFromEnv("T"))
	assert.Equal(t, "pg", db.Host)
	assert.Equal(t, 6000, db.Port)
	assert.Equal(t, 9, db.MaxConns)
	assert.Equal(t, 5*time.Minute, db.ConnMaxLifetime)

	t.Setenv("R_ADDR", "cache:6380")
	t.Setenv("R_DB", "3")
	r := &RedisConfig{}
	require.NoError(t, r.LoadFromEnv("R"))
	assert.Equal(t, "cache:6380", r.Addr)
	assert.Equal(t, 3, r.DB)
	assert.Zero(t, r.DialTimeout)

	t.Setenv("M_BROKER", "tcp://broker:1883")
	t.Setenv("M_TOPIC", "growth")
	t.Setenv("M_QOS", "2")
	m := &MQTTConfig{ClientID: "keep", QoS: 1}
	require.NoError(t, m.LoadFromEnv("M"))
	assert.Equal(t, "tcp://broker:1883", m.Broker)
	assert.Equal(t, "growth", m.Topic)
	assert.Equal(t, "keep", m.ClientID)
	assert.Equal(t, byte(2), m.QoS)
}

func TestLoadFromEnv_RejectsMalformedValues(t *testing.T) {
	t.Setenv("BAD_PORT", "five")
	db := &DatabaseConfig{Port: 5432}
	err := db.LoadFromEnv("BAD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_PORT")
	assert.Equal(t, 5432, db.Port)

	t.Setenv("Q_QOS", "3")
	m := &MQTTConfig{QoS: 1}
	require.Error(t, m.LoadFromEnv("Q"))
	assert.Equal(t, byte(1), m.QoS)
}
