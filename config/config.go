package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

// Config holds every setting the API process and the operator CLI read from the environment.
type Config struct {
	GoEnv string `env:"GO_ENV, default=development"`
	Port  int    `env:"PORT, default=8080"`

	HTTP     HTTPConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Refresh  RefreshConfig
	Sources  SourcesConfig
}

type HTTPConfig struct {
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS, default=*"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS, default=120"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW, default=1m"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT, default=5s"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST, default=localhost"`
	Port     string `env:"DB_PORT, default=5432"`
	User     string `env:"DB_USER_NAME, default=postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME, default=uniguide"`
	SSLMode  string `env:"DB_SSL_MODE, default=disable"`
}

// DSN builds the key/value connection string used by the GORM postgres driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		dsnValue(d.Host), dsnValue(d.User), dsnValue(d.Password),
		dsnValue(d.Name), dsnValue(d.Port), dsnValue(d.SSLMode),
	)
}

// URL builds the postgres:// form used by the migration runner.
func (d DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// dsnValue quotes values libpq would otherwise split or misread.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	return "'" + dsnEscaper.Replace(v) + "'"
}

type CacheConfig struct {
	// redis, memory or none
	Backend    string        `env:"CACHE_BACKEND, default=redis"`
	RedisURL   string        `env:"REDIS_URL, default=redis://localhost:6379/0"`
	TTL        time.Duration `env:"CACHE_TTL, default=24h"`
	MemorySize int           `env:"CACHE_MEMORY_SIZE, default=1024"`
}

type RefreshConfig struct {
	CronEnabled bool          `env:"CRON_ENABLED, default=true"`
	Schedule    string        `env:"REFRESH_CRON, default=0 0 2 * * *"` // seconds precision, daily at 02:00 UTC
	Source      string        `env:"REFRESH_SOURCE, default=discover_uni"`
	Timeout     time.Duration `env:"REFRESH_TIMEOUT, default=10m"`
	DefaultYear int           `env:"DEFAULT_ACADEMIC_YEAR, default=2024"`
	// When set, manual refresh endpoints require an admin bearer token signed with it.
	APISecret string `env:"REFRESH_API_SECRET"`
}

type SourcesConfig struct {
	FilePath    string        `env:"SOURCE_FILE_PATH"`
	HTTPURL     string        `env:"SOURCE_HTTP_URL"`
	HTTPTimeout time.Duration `env:"SOURCE_HTTP_TIMEOUT, default=30s"`
	S3Bucket    string        `env:"SOURCE_S3_BUCKET"`
	S3Key       string        `env:"SOURCE_S3_KEY, default=catalog/courses.json"`
	S3Region    string        `env:"SOURCE_S3_REGION, default=eu-west-2"`
	S3Endpoint  string        `env:"SOURCE_S3_ENDPOINT"`
	S3AccessKey string        `env:"SOURCE_S3_ACCESS_KEY"`
	S3SecretKey string        `env:"SOURCE_S3_SECRET_KEY"`
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

func Get(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}
