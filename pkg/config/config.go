// Package config loads edgefuncd's startup configuration from the process
// environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is process-wide immutable startup configuration.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:"0.0.0.0:3000"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	S3AccessKey string `env:"S3_ACCESS_KEY,required"`
	S3SecretKey string `env:"S3_SECRET_KEY,required"`
	S3Bucket    string `env:"S3_BUCKET,required"`
	S3Region    string `env:"S3_REGION,required"`
	S3Endpoint  string `env:"S3_ENDPOINT"` // optional: forces path-style addressing when set

	UnpackRoot          string        `env:"UNPACK_ROOT" envDefault:"/var/lib/edgefunc/apps"`
	ReconcileInterval   time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5s"`
	WorkerIdleTimeout   time.Duration `env:"WORKER_IDLE_TIMEOUT" envDefault:"5s"`
	WorkerQueueCapacity int           `env:"WORKER_QUEUE_CAPACITY" envDefault:"10"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"true"`
}

// Load reads an optional .env file (a missing file is not an error, mirroring
// the original implementation's dotenv().ok()) and then parses the process
// environment into a Config. Required fields missing or empty is a fatal
// startup error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}
