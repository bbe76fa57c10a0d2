package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(2), cfg.Costing.CostScale)
	assert.Equal(t, "none", cfg.Lock.Backend)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 4, cfg.Worker.SyncParallelism)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_LeeVariables(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "MEMORY")
	v.Set("COSTING_COST_SCALE", "4")
	v.Set("DB_STATEMENT_TIMEOUT_MS", "1500")
	v.Set("DB_AUTO_MIGRATE", "true")
	v.Set("LOCK_BACKEND", "redis")
	v.Set("REDIS_ADDRESS", "localhost:6379")
	v.Set("PAYMENTS_SYNC_ASYNC", "1")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, int32(4), cfg.Costing.CostScale)
	assert.Equal(t, 1500*time.Millisecond, cfg.DB.StatementTimeout)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.True(t, cfg.Worker.SyncAsync)
	assert.True(t, cfg.Redis.Enabled())
}

func TestFromViper_Invalidos(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":          {"STORE_DRIVER": "mysql"},
		"lock backend":    {"LOCK_BACKEND": "zookeeper"},
		"redis sin addr":  {"LOCK_BACKEND": "redis"},
		"escala negativa": {"COSTING_COST_SCALE": "-1"},
		"escala > 6":      {"COSTING_COST_SCALE": "7"},
		"async sin redis": {"PAYMENTS_SYNC_ASYNC": "true"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for k, val := range env {
				v.Set(k, val)
			}
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/inv?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
