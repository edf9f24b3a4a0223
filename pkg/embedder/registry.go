package embedder

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Loader constructs the model named by id.
type Loader func(ctx context.Context, id string) (Model, error)

// LoaderConfig selects how models are constructed.
type LoaderConfig struct {
	// Endpoint of an embedding server. Empty selects the local HashModel.
	Endpoint   string
	RPS        float64
	Dimensions int
	Timeout    time.Duration // per request, HTTP models only
}

// NewLoader returns a Loader for cfg.
func NewLoader(cfg LoaderConfig) Loader {
	if cfg.Endpoint == "" {
		return func(ctx context.Context, id string) (Model, error) {
			return NewHashModel(id, cfg.Dimensions), nil
		}
	}
	return func(ctx context.Context, id string) (Model, error) {
		var client *http.Client
		if cfg.Timeout > 0 {
			client = &http.Client{Timeout: cfg.Timeout}
		}
		m := NewHTTPModel(id, cfg.Endpoint, cfg.RPS, client)
		if err := m.ping(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}
}

type entry struct {
	model Model
	err   error
}

// Registry resolves model identifiers for one worker. Each identifier is loaded
// until it succeeds or fails outright; that result, model or error, is kept for the
// lifetime of the registry. Loads that time out are retried on the next Get.
// Registries are not shared between workers.
type Registry struct {
	loader      Loader
	loadTimeout time.Duration

	mu     sync.Mutex
	models map[string]entry
}

// NewRegistry creates an empty registry. A positive loadTimeout bounds each load.
func NewRegistry(loader Loader, loadTimeout time.Duration) *Registry {
	return &Registry{
		loader:      loader,
		loadTimeout: loadTimeout,
		models:      make(map[string]entry),
	}
}

// Get returns the model for id, loading it on first use.
func (r *Registry) Get(ctx context.Context, id string) (Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.models[id]; ok {
		return e.model, e.err
	}

	loadCtx := ctx
	if r.loadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, r.loadTimeout)
		defer cancel()
	}

	m, err := r.loader(loadCtx, id)
	if err != nil {
		err = fmt.Errorf("failed to load model %q: %w", id, err)
		if loadCtx.Err() != nil {
			// Timed out or canceled: a later call may still succeed.
			return nil, err
		}
	}
	r.models[id] = entry{model: m, err: err}
	return m, err
}
