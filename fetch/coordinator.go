package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/mhelbo/gidasclient/cache"
	"github.com/mhelbo/gidasclient/transport"
)

// Config configures the coordinator.
type Config struct {
	// Transport performs the network calls. Required.
	Transport transport.Transport

	// Store holds cached GET responses. Defaults to a MemoryStore with
	// CacheTTL.
	Store cache.Store

	// Keyer canonicalizes (endpoint, params) into cache keys.
	// Defaults to a QueryKeyer.
	Keyer cache.Keyer

	// CacheTTL seeds the default store. Ignored when Store is set.
	// Default: cache.DefaultTTL (5 minutes).
	CacheTTL time.Duration

	// Logger receives debug-level coordination logs. Disabled when unset.
	Logger zerolog.Logger

	// Meter records hit/miss/coalesced counters. Defaults to the global
	// meter provider.
	Meter metric.Meter
}

// Request describes one coordinated call.
type Request struct {
	// Method is the HTTP method. Defaults to GET when empty.
	Method string

	// Endpoint is the path relative to the transport's base URL.
	Endpoint string

	// Params are the query parameters. They feed both the outgoing query
	// string and the cache key.
	Params map[string]any

	// Body is the request body for mutations.
	Body any

	// SkipCache bypasses the cache for this call. The zero value keeps
	// caching on, matching the layer's default.
	SkipCache bool
}

// Coordinator decides cache-hit versus network fetch and de-duplicates
// concurrent identical reads.
type Coordinator struct {
	transport transport.Transport
	store     cache.Store
	keyer     cache.Keyer
	group     singleflight.Group
	log       zerolog.Logger

	hits      metric.Int64Counter
	misses    metric.Int64Counter
	coalesced metric.Int64Counter
}

// NewCoordinator creates a coordinator for the given configuration.
func NewCoordinator(config Config) *Coordinator {
	// Apply defaults
	if config.Store == nil {
		config.Store = cache.NewMemoryStore(config.CacheTTL)
	}
	if config.Keyer == nil {
		config.Keyer = cache.NewQueryKeyer()
	}
	if config.Meter == nil {
		config.Meter = otel.Meter("github.com/mhelbo/gidasclient/fetch")
	}

	c := &Coordinator{
		transport: config.Transport,
		store:     config.Store,
		keyer:     config.Keyer,
		log:       config.Logger,
	}
	c.hits, _ = config.Meter.Int64Counter("fetch.cache.hits",
		metric.WithDescription("GET requests served from the response cache"))
	c.misses, _ = config.Meter.Int64Counter("fetch.cache.misses",
		metric.WithDescription("cacheable GET requests that went to the network"))
	c.coalesced, _ = config.Meter.Int64Counter("fetch.coalesced",
		metric.WithDescription("fetches that shared another caller's in-flight network call"))
	return c
}

// Fetch performs one coordinated call and returns the raw response body.
//
// GET requests with caching enabled are served from the store when a fresh
// entry exists; otherwise the network result is written through before it
// is returned. Concurrent cacheable fetches for the same key share a
// single network call; each caller receives its own copy of the body.
// Failures are never cached.
func (c *Coordinator) Fetch(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	cacheable := method == http.MethodGet && !req.SkipCache
	var key string
	if cacheable {
		key = c.keyer.Key(req.Endpoint, req.Params)
		if err := cache.ValidateKey(key); err != nil {
			// An unusable key skips caching rather than failing the read.
			c.log.Debug().Str("endpoint", req.Endpoint).Err(err).Msg("uncacheable key")
			cacheable = false
		}
	}

	if !cacheable {
		resp, err := c.send(ctx, method, req)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}

	if value, ok := c.store.Get(ctx, key); ok {
		c.hits.Add(ctx, 1)
		c.log.Debug().Str("key", key).Msg("cache hit")
		return value, nil
	}
	c.misses.Add(ctx, 1)

	// Coalesce concurrent misses for the same key into one network call.
	// The first caller's context governs the shared flight.
	value, err, shared := c.group.Do(key, func() (any, error) {
		resp, err := c.send(ctx, method, req)
		if err != nil {
			return nil, err
		}
		c.store.Set(ctx, key, resp.Body)
		return resp.Body, nil
	})
	if shared {
		c.coalesced.Add(ctx, 1)
		c.log.Debug().Str("key", key).Msg("fetch coalesced")
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), value.([]byte)...), nil
}

// Invalidate removes the cached entry for one (endpoint, params) pair.
// Call after a mutation that changed what the endpoint would return.
func (c *Coordinator) Invalidate(ctx context.Context, endpoint string, params map[string]any) {
	key := c.keyer.Key(endpoint, params)
	c.store.Delete(ctx, key)
	c.log.Debug().Str("key", key).Msg("invalidated")
}

// InvalidateAll empties the cache. Call on session boundaries (logout) or
// after mutations with broad effects.
func (c *Coordinator) InvalidateAll(ctx context.Context) {
	c.store.Clear(ctx)
	c.log.Debug().Msg("cache cleared")
}

// Store exposes the underlying store, e.g. to adjust its TTL at runtime.
func (c *Coordinator) Store() cache.Store { return c.store }

func (c *Coordinator) send(ctx context.Context, method string, req Request) (*transport.Response, error) {
	query := make(map[string]string, len(req.Params))
	for name, value := range req.Params {
		if value == nil {
			continue
		}
		query[name] = cache.FormatParam(value)
	}
	return c.transport.Send(ctx, transport.Request{
		Method: method,
		Path:   req.Endpoint,
		Query:  query,
		Body:   req.Body,
	})
}
