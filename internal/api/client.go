package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"meal-shell/internal/config"
	"meal-shell/internal/logger"
	"meal-shell/internal/metrics"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	headerAPIVersion     = "X-API-Version"
	headerIdempotencyKey = "Idempotency-Key"
)

// TokenSource yields the current bearer credential, or "" when there is no session.
type TokenSource interface {
	Token() string
}

// Recorder receives one metric per backend call and per read served from the cache.
type Recorder interface {
	Record(ctx context.Context, m metrics.RequestMetric) error
}

// Client talks to the meal-planning backend. Listed collections are served
// from a shared ReadCache and every successful mutation invalidates the
// collections derived from the mutated resource.
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
	tokens     TokenSource
	cache      *ReadCache
	validate   *validator.Validate
	recorder   Recorder
	log        *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache replaces the read cache.
func WithCache(cache *ReadCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = logger.OrNop(l) }
}

// WithRecorder records request metrics.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a new backend client. tokens may be nil for unauthenticated use.
func NewClient(cfg *config.Config, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    cfg.APIBaseURL,
		apiVersion: cfg.APIVersion,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		tokens:     tokens,
		cache:      NewReadCache(cfg.CacheTTL),
		validate:   validator.New(),
		log:        zap.NewNop(),
	}
	if c.apiVersion == "" {
		c.apiVersion = "1"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClearCache drops every cached collection.
func (c *Client) ClearCache() {
	c.cache.Clear()
	c.log.Debug("read cache cleared")
}

// response is a successful reply. NoContent is set for 204 and for empty bodies.
type response struct {
	Status    int
	Body      []byte
	NoContent bool
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

func (c *Client) do(ctx context.Context, r request) (*response, error) {
	op := r.method + " " + r.path

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIVersion, c.apiVersion)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, metrics.RequestMetric{Method: r.method, Path: r.path, Latency: time.Since(start)})
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	if err != nil {
		c.record(ctx, metrics.RequestMetric{Method: r.method, Path: r.path, Latency: latency})
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.log.Debug("backend request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", latency),
	)
	c.record(ctx, metrics.RequestMetric{Method: r.method, Path: r.path, Status: resp.StatusCode, Latency: latency})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, raw)
	}

	return &response{
		Status:    resp.StatusCode,
		Body:      raw,
		NoContent: resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0,
	}, nil
}

// decodeOne decodes a single object and checks its shape.
func decodeOne[T any](c *Client, op string, resp *response) (*T, error) {
	if resp.NoContent {
		return nil, ErrNoContent
	}
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if err := c.validate.Struct(v); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	return &v, nil
}

// decodeList decodes a collection, treating no content as an empty collection.
func decodeList[T any](c *Client, op string, resp *response) ([]T, error) {
	if resp.NoContent {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	for i := range items {
		if err := c.validate.Struct(items[i]); err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("unexpected shape for item %d: %w", i, err)}
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// cachedList serves r from the read cache or fetches it with a GET on path.
// Callers receive their own copy of the slice header; elements must be treated as read-only.
func cachedList[T any](ctx context.Context, c *Client, r Resource, path string) ([]T, error) {
	v, gen, ok := c.cache.Get(r)
	if ok {
		c.log.Debug("read cache hit", zap.String("resource", string(r)))
		c.record(ctx, metrics.RequestMetric{Method: http.MethodGet, Path: path, Status: http.StatusOK, CacheHit: true})
		return slices.Clone(v.([]T)), nil
	}

	resp, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	items, err := decodeList[T](c, "GET "+path, resp)
	if err != nil {
		return nil, err
	}

	if !c.cache.Put(r, gen, items) {
		c.log.Debug("discarded fetch invalidated in flight", zap.String("resource", string(r)))
	}
	return slices.Clone(items), nil
}

// mutate performs a write and, on success, invalidates r and its dependents.
func (c *Client) mutate(ctx context.Context, r Resource, req request) (*response, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	dropped := c.cache.Invalidate(r)
	c.log.Debug("read cache invalidated",
		zap.String("mutated", string(r)),
		zap.Any("dropped", dropped),
	)
	return resp, nil
}

// record hands m to the recorder. Metric failures never fail the request.
func (c *Client) record(ctx context.Context, m metrics.RequestMetric) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(context.WithoutCancel(ctx), m); err != nil {
		c.log.Debug("failed to record request metric", zap.Error(err))
	}
}

func resourcePath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}
