package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/config"
)

var (
	ErrNotFound = errors.New("key not found in cache")
	// ErrUnavailable is returned by every operation of a disabled cache.
	ErrUnavailable = errors.New("cache unavailable")
)

// Key namespaces. A successful refresh clears both.
const (
	CoursesPrefix      = "courses:"
	UniversitiesPrefix = "universities:"
	UniversitiesAllKey = UniversitiesPrefix + "all"

	// Generation tokens live outside the data namespaces so a pattern
	// delete of "courses:*" leaves them in place.
	generationPrefix = "generation:"
)

// Cache is a best-effort key/value store for serialized query results.
// Patterns passed to DeletePattern are glob style, e.g. "courses:*".
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Enabled() bool
	Close() error
}

// SetJSON stores a JSON-encoded value in cache
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// GetJSON retrieves and decodes a JSON value from cache
func GetJSON(ctx context.Context, c Cache, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Generation returns the current token of a namespace, or "" when none is
// set or the cache cannot be read. Callers fold it into their keys.
func Generation(ctx context.Context, c Cache, namespace string) string {
	data, err := c.Get(ctx, generationPrefix+namespace)
	if err != nil {
		return ""
	}
	return string(data)
}

// BumpGeneration replaces the token of a namespace. Entries keyed with an
// older token are never read again, including ones written after the bump
// by a read that started before it.
func BumpGeneration(ctx context.Context, c Cache, namespace string) error {
	return c.Set(ctx, generationPrefix+namespace, []byte(uuid.NewString()), 0)
}

// New builds the configured backend. An unreachable Redis degrades to a
// disabled cache instead of failing startup.
func New(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) Cache {
	switch cfg.Backend {
	case "redis":
		rc, err := NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", zap.String("url", cfg.RedisURL), zap.Error(err))
			return Disabled{}
		}
		log.Info("cache backend ready", zap.String("backend", "redis"))
		return rc
	case "memory":
		log.Info("cache backend ready", zap.String("backend", "memory"), zap.Int("size", cfg.MemorySize))
		return NewMemoryCache(cfg.MemorySize, cfg.TTL)
	default:
		log.Info("caching disabled", zap.String("backend", cfg.Backend))
		return Disabled{}
	}
}

// Disabled is the cache used when no backend is configured or reachable.
type Disabled struct{}

func (Disabled) Get(context.Context, string) ([]byte, error) { return nil, ErrUnavailable }

func (Disabled) Set(context.Context, string, []byte, time.Duration) error { return ErrUnavailable }

func (Disabled) DeletePattern(context.Context, string) (int, error) { return 0, ErrUnavailable }

func (Disabled) Ping(context.Context) error { return ErrUnavailable }

func (Disabled) Enabled() bool { return false }

func (Disabled) Close() error { return nil }
