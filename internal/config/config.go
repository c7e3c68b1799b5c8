// Package config loads the environment-driven configuration set spec §6
// enumerates. Grounded on HPNChanel-penshort's internal/config/config.go
// (caarlos0/env struct-tag loading, Load() returning *Config) and on the
// godotenv convergence seen across the pack's manifests (KretovDmitry-
// shortener, Omprakash228-shortly-be, malinanu-urlshotern) for loading a
// local .env file in development before the environment is parsed.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting the shortener core uses.
type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`
	AppName string `env:"APP_NAME" envDefault:"shortlink"`

	MongoURI            string        `env:"MONGODB_URI,required"`
	MongoDatabase       string        `env:"MONGODB_DATABASE,required"`
	MongoConnTimeout    time.Duration `env:"MONGODB_CONN_TIMEOUT" envDefault:"10s"`
	MongoQueryTimeout   time.Duration `env:"MONGODB_QUERY_TIMEOUT" envDefault:"5s"`
	MongoDisconnTimeout time.Duration `env:"MONGODB_DISCONN_TIMEOUT" envDefault:"5s"`
	MongoMinPoolSize    uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"5"`
	MongoMaxPoolSize    uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`

	RedisHost                string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort                string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword            string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB                  int           `env:"REDIS_DB" envDefault:"0"`
	RedisCacheTTL            time.Duration `env:"REDIS_CACHE_TTL" envDefault:"1h"`
	RedisInvalidationFlagTTL time.Duration `env:"REDIS_INVALIDATION_FLAG_TTL" envDefault:"30s"`
	RedisConnTimeout         time.Duration `env:"REDIS_CONN_TIMEOUT" envDefault:"5s"`
	RedisMaxRetries          int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	RedisPoolSize            int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	RedisMinIdleConns        int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"5"`

	RabbitMQURL           string        `env:"RABBITMQ_URL,required"`
	RabbitMQRPCTimeout    time.Duration `env:"RABBITMQ_RPC_TIMEOUT" envDefault:"5s"`
	QueueClickEvents      string        `env:"QUEUE_CLICK_EVENTS" envDefault:"click_events"`
	QueueDashboardRequest string        `env:"QUEUE_DASHBOARD_REQUEST" envDefault:"dashboard_request"`

	JWTSecret          string `env:"JWT_SECRET,required"`
	JWTExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
	JWTIssuer          string `env:"JWT_ISSUER" envDefault:"shortlink"`

	ClickTrackingTimeout time.Duration `env:"SERVICE_CLICK_TRACKING_TIMEOUT" envDefault:"5s"`
	GeoIPTimeout         time.Duration `env:"SERVICE_GEOIP_TIMEOUT" envDefault:"2s"`
	ExternalAPITimeout   time.Duration `env:"SERVICE_EXTERNAL_API_TIMEOUT" envDefault:"10s"`

	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	CORSAllowMethods string `env:"CORS_ALLOW_METHODS" envDefault:"GET,POST,DELETE,OPTIONS"`
	CORSAllowHeaders string `env:"CORS_ALLOW_HEADERS" envDefault:"Content-Type,Authorization"`

	URLDefaultTTLDays  int `env:"URL_DEFAULT_TTL_DAYS" envDefault:"7"`
	URLShortCodeLength int `env:"URL_SHORT_CODE_LENGTH" envDefault:"6"`
	URLMaxRetries      int `env:"URL_MAX_RETRIES" envDefault:"10"`

	GeoIPEndpoint string `env:"GEOIP_ENDPOINT" envDefault:"http://ip-api.com/json/%s"`

	JaegerEndpoint string `env:"JAEGER_ENDPOINT" envDefault:"localhost:4317"`
}

// Load reads a local .env file when present (development convenience; a
// missing file is not an error) and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether AppEnv is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
