package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is loaded once at process
// start and never mutated afterwards.
type Config struct {
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	APIServerAddr   string `env:"API_SERVER_ADDR" envDefault:":8080"`
	AdminServerAddr string `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`

	PostgresURL string `env:"POSTGRES_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR,required"`

	// JWTSecret signs dashboard session tokens. HS256 only.
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	APIKeyCacheTTL time.Duration `env:"API_KEY_CACHE_TTL" envDefault:"5m"`

	// VerifyTimeout bounds every credential-store call made on the
	// verification path. A timeout fails closed, never open.
	VerifyTimeout time.Duration `env:"VERIFY_TIMEOUT" envDefault:"3s"`

	// CostCheckInterval controls how often the deferred quota validation
	// includes the cost projection in addition to the store-limit check.
	CostCheckInterval time.Duration `env:"COST_CHECK_INTERVAL" envDefault:"4h"`

	// KeyTouchInterval throttles last-used timestamp writes. Updates beyond
	// the allowed rate are dropped; the timestamp is advisory only.
	KeyTouchInterval time.Duration `env:"KEY_TOUCH_INTERVAL" envDefault:"30s"`

	DispatcherWorkers   int `env:"DISPATCHER_WORKERS" envDefault:"4"`
	DispatcherQueueSize int `env:"DISPATCHER_QUEUE_SIZE" envDefault:"256"`

	ActivityStream string `env:"ACTIVITY_STREAM" envDefault:"tenant_activity"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
