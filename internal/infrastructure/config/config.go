package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,            default=8080"`
	Env      string `env:"ENV,             default=development"`
	LogLevel string `env:"LOG_LEVEL,       default=info"`
	BaseURL  string `env:"PUBLIC_BASE_URL, default=http://localhost:8080"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
	SMTP  SMTPConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER,        default=blog-platform"`
	Audience   string        `env:"JWT_AUDIENCE,      default=blog-platform-api"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=blog_platform"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port string `env:"SMTP_PORT, default=587"`
	From string `env:"SMTP_FROM, default=no-reply@blog-platform.local"`
	User string `env:"SMTP_USER"`
	Pass string `env:"SMTP_PASS"`
}

// IsDevelopment reports whether the service runs outside production; cookie
// Secure flags and pretty logging key off it.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
