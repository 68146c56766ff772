package source

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/pkg/config"
	"github.com/cognitive-agent/backend/pkg/logger"
)

// Registry is the lookup table of search providers. Adapters are
// constructed once at startup; a provider enabled without its credential
// is a configuration error surfaced immediately, not at search time.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(cfg config.SourcesConfig) (*Registry, error) {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
	}

	r := &Registry{adapters: make(map[string]Adapter)}

	for _, name := range cfg.Enabled {
		var (
			adapter Adapter
			err     error
		)

		switch name {
		case "serpapi":
			adapter, err = NewSerpAPIAdapter(cfg.SerpAPIKey, httpClient)
		case "brave":
			adapter, err = NewBraveAdapter(cfg.BraveAPIKey, httpClient)
		case "duckduckgo":
			adapter = NewDuckDuckGoAdapter(httpClient)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownSource, name)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to register source %q: %w", name, err)
		}

		r.adapters[name] = adapter
	}

	if len(r.adapters) == 0 {
		return nil, ErrNoAdapters
	}

	logger.Info("Source registry initialized", zap.Int("adapters", len(r.adapters)))

	return r, nil
}

// NewRegistryFromAdapters wires explicit adapters; used by tests and by
// callers embedding the loop with custom providers.
func NewRegistryFromAdapters(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.adapters)
}
