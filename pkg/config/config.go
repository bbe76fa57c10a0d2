package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	Store   StoreConfig
	DB      DBConfig
	HTTP    HTTPConfig
	Redis   RedisConfig
	Costing CostingConfig
	Lock    LockConfig
	Worker  WorkerConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// StoreConfig selecciona el almacenamiento: "postgres" o "memory".
type StoreConfig struct {
	Driver string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL      string
	Host             string
	Port             int
	User             string
	Password         string
	DBName           string
	SSLMode          string
	MaxConns         int
	StatementTimeout time.Duration // 0 = sin límite
	AutoMigrate      bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig conexión a Redis (bloqueos distribuidos y cola).
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Address != "" }

// CostingConfig parámetros del costeo.
type CostingConfig struct {
	CostScale int32
}

// LockConfig bloqueo por material: "none", "local" o "redis".
type LockConfig struct {
	Backend string
	TTL     time.Duration
	Wait    time.Duration
}

// WorkerConfig tareas en segundo plano y sincronización de pagos.
type WorkerConfig struct {
	Concurrency     int
	SyncParallelism int
	SyncAsync       bool   // POST /api/payments/sync encola en vez de ejecutar en línea
	SyncCron        string // vacío = sin programación periódica
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "inventory-costing"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString(v, "STORE_DRIVER", "postgres")),
		},
		DB: DBConfig{
			DatabaseURL:      getString(v, "DATABASE_URL", ""),
			Host:             getString(v, "DB_HOST", "localhost"),
			Port:             getInt(v, "DB_PORT", 5432),
			User:             getString(v, "DB_USER", "postgres"),
			Password:         getString(v, "DB_PASSWORD", ""),
			DBName:           getString(v, "DB_NAME", "inventory_costing"),
			SSLMode:          getString(v, "DB_SSLMODE", "disable"),
			MaxConns:         getInt(v, "DB_MAX_CONNS", 0),
			StatementTimeout: time.Duration(getInt(v, "DB_STATEMENT_TIMEOUT_MS", 0)) * time.Millisecond,
			AutoMigrate:      getBool(v, "DB_AUTO_MIGRATE", false),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Address:  getString(v, "REDIS_ADDRESS", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Costing: CostingConfig{
			CostScale: int32(getInt(v, "COSTING_COST_SCALE", 2)),
		},
		Lock: LockConfig{
			Backend: strings.ToLower(getString(v, "LOCK_BACKEND", "none")),
			TTL:     getSeconds(v, "LOCK_TTL_SECONDS", 30),
			Wait:    getSeconds(v, "LOCK_WAIT_SECONDS", 5),
		},
		Worker: WorkerConfig{
			Concurrency:     getInt(v, "WORKER_CONCURRENCY", 5),
			SyncParallelism: getInt(v, "PAYMENTS_SYNC_PARALLELISM", 4),
			SyncAsync:       getBool(v, "PAYMENTS_SYNC_ASYNC", false),
			SyncCron:        getString(v, "PAYMENTS_SYNC_CRON", ""),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: STORE_DRIVER inválido %q (postgres|memory)", c.Store.Driver)
	}
	switch c.Lock.Backend {
	case "none", "local":
	case "redis":
		if !c.Redis.Enabled() {
			return fmt.Errorf("config: LOCK_BACKEND=redis requiere REDIS_ADDRESS")
		}
	default:
		return fmt.Errorf("config: LOCK_BACKEND inválido %q (none|local|redis)", c.Lock.Backend)
	}
	if c.Costing.CostScale < 0 || c.Costing.CostScale > 6 {
		return fmt.Errorf("config: COSTING_COST_SCALE fuera de rango: %d", c.Costing.CostScale)
	}
	if c.Worker.SyncAsync && !c.Redis.Enabled() {
		return fmt.Errorf("config: PAYMENTS_SYNC_ASYNC requiere REDIS_ADDRESS")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

func getSeconds(v *viper.Viper, key string, def int) time.Duration {
	return time.Duration(getInt(v, key, def)) * time.Second
}
