package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is loaded once at startup and passed by value to the components
// that need it.
type Config struct {
	Port           string        `env:"PORT,            default=8080"`
	Env            string        `env:"ENV,             default=development"`
	JWTSecret      string        `env:"JWT_SECRET,      required"`
	LogLevel       string        `env:"LOG_LEVEL,       default=info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=10s"`
	BcryptCost     int           `env:"BCRYPT_COST,     default=8"`
	MaxPhotoBytes  int           `env:"MAX_PHOTO_BYTES, default=1000000"`
	SweepWorkers   int           `env:"SWEEP_WORKERS,   default=4"`

	Mongo MongoConfig
	Redis RedisConfig
	Login LoginConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,       default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,        default=task_manager"`
	MaxPoolSize uint64 `env:"MONGO_POOL_SIZE, default=100"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	Window      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

// IsDevelopment reports whether the process runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration through lookuper using go-envconfig.
// Pass envconfig.OsLookuper() to read the process environment.
func Load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("config: REQUEST_TIMEOUT must be positive")
	}
	return cfg, nil
}
