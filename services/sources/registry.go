package sources

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/config"
)

// Registry manages source instances by name
type Registry struct {
	sources map[string]Source
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// NewRegistryFromConfig registers the sample source plus every source whose
// settings are present.
func NewRegistryFromConfig(cfg config.SourcesConfig, log *zap.Logger) (*Registry, error) {
	r := NewRegistry()
	r.Register(NewSampleSource())

	if cfg.FilePath != "" {
		r.Register(NewFileSource(cfg.FilePath))
	}
	if cfg.HTTPURL != "" {
		r.Register(NewHTTPSource(cfg.HTTPURL, cfg.HTTPTimeout))
	}
	if cfg.S3Bucket != "" {
		s3src, err := NewS3Source(S3Config{
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		r.Register(s3src)
	}

	log.Info("data sources registered", zap.Strings("sources", r.Names()))
	return r, nil
}

// Register adds or replaces a source under its Name.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[s.Name()] = s
}

func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return s, nil
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
