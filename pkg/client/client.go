package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Version is reported in the default User-Agent header.
const Version = "0.1.0"

// DefaultUserAgent is sent unless overridden by WithUserAgent or a header.
const DefaultUserAgent = "wexample-go-api/" + Version

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// Request methods accepted by Do.
const (
	MethodGet     = http.MethodGet
	MethodPost    = http.MethodPost
	MethodPut     = http.MethodPut
	MethodPatch   = http.MethodPatch
	MethodDelete  = http.MethodDelete
	MethodHead    = http.MethodHead
	MethodOptions = http.MethodOptions
)

// RequestOptions carries the per-call parts of a request.
type RequestOptions struct {
	// Query is appended to the URL.
	Query url.Values
	// Headers override the client's default headers for this call.
	Headers map[string]string
	// JSON, when non-nil, is encoded as the request body.
	JSON any
}

// Response is a successful (2xx) API response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// Client is a minimal JSON API client. It implements repository.Requester.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *zap.Logger
	cache       Cache
	limiter     *rate.Limiter
	tokenSource oauth2.TokenSource
	userAgent   string

	// default headers, guarded by mu
	mu      sync.RWMutex
	headers map[string]string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client, overriding any TLS options.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("nil http client")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the total timeout of each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
		return nil
	}
}

// WithAPIKey sends key as a Bearer token on every request. An empty key is ignored.
func WithAPIKey(key string) Option {
	return func(c *Client) error {
		if key != "" {
			c.SetAPIKey(key)
		}
		return nil
	}
}

// WithBearerToken attaches a pre-obtained token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.SetBearerToken(token)
		return nil
	}
}

// WithTokenSource fetches the Bearer token from ts before each request. It
// takes precedence over a static token set with WithBearerToken.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) error {
		c.tokenSource = oauth2.ReuseTokenSource(nil, ts)
		return nil
	}
}

// WithDefaultHeaders adds headers sent with every request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) error {
		c.SetDefaultHeaders(headers)
		return nil
	}
}

// WithUserAgent replaces DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithLogger sets the logger for request tracing. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// WithCache caches successful GET JSON responses in cache.
func WithCache(cache Cache) Option {
	return func(c *Client) error {
		c.cache = cache
		return nil
	}
}

// WithCacheTTL enables in-memory response caching with the given TTL.
// A TTL <= 0 disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		if ttl > 0 {
			c.cache = NewMemoryCache(ttl)
		} else {
			c.cache = nil
		}
		return nil
	}
}

// WithRateLimit makes the client wait for a token-bucket slot before each
// request. rps is the steady-state rate; burst the bucket size.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 {
			return fmt.Errorf("rate limit must be positive, got %v", rps)
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// New creates a Client for the API rooted at baseURL.
//
//	c, err := client.New("https://api.example.com/v1",
//	    client.WithAPIKey(os.Getenv("API_KEY")),
//	    client.WithCacheTTL(30*time.Second),
//	)
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/") + "/",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zap.NewNop(),
		userAgent:  DefaultUserAgent,
		headers:    make(map[string]string),
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(baseURL string, opts ...Option) *Client {
	c, err := New(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// BaseURL returns the normalised base URL, always ending in "/".
func (c *Client) BaseURL() string { return c.baseURL }

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger { return c.logger }

// DefaultHeaders returns a copy of the headers sent with every request.
func (c *Client) DefaultHeaders() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.headers)
}

// SetDefaultHeader sets one header sent with every request.
func (c *Client) SetDefaultHeader(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[http.CanonicalHeaderKey(name)] = value
}

// SetDefaultHeaders sets several default headers.
func (c *Client) SetDefaultHeaders(headers map[string]string) {
	for name, value := range headers {
		c.SetDefaultHeader(name, value)
	}
}

// RemoveDefaultHeader stops sending name by default.
func (c *Client) RemoveDefaultHeader(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.headers, http.CanonicalHeaderKey(name))
}

// SetBearerToken sets the Authorization header to "Bearer <token>".
func (c *Client) SetBearerToken(token string) {
	c.SetDefaultHeader("Authorization", "Bearer "+token)
}

// SetAPIKey authenticates with key as a Bearer token.
func (c *Client) SetAPIKey(key string) {
	c.SetBearerToken(key)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	return c.Do(ctx, MethodGet, path, opts)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	return c.Do(ctx, MethodPost, path, opts)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	return c.Do(ctx, MethodPut, path, opts)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	return c.Do(ctx, MethodPatch, path, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	return c.Do(ctx, MethodDelete, path, opts)
}

// StartCacheEviction periodically drops expired entries from the in-memory
// cache until ctx is done. It is a no-op for other caches, which expire
// entries themselves.
func (c *Client) StartCacheEviction(ctx context.Context, interval time.Duration) {
	if mc, ok := c.cache.(*MemoryCache); ok {
		mc.StartEviction(ctx, interval)
	}
}

// RequestJSON implements repository.Requester.
func (c *Client) RequestJSON(ctx context.Context, method, path string, query url.Values) (any, error) {
	return c.DoJSON(ctx, method, path, RequestOptions{Query: query})
}

// DoJSON performs a request and decodes the body, which must be a JSON object
// or array. Successful GET bodies are served from and stored in the cache
// when one is configured.
func (c *Client) DoJSON(ctx context.Context, method, path string, opts RequestOptions) (any, error) {
	var key string
	if c.cache != nil && method == MethodGet {
		k, err := c.cacheKey(path, opts)
		if err != nil {
			return nil, err
		}
		key = k
		if raw, ok := c.cache.Get(ctx, key); ok {
			if v, err := decodeJSON(raw); err == nil {
				recordCacheHit()
				c.logger.Debug("cache hit", zap.String("key", key))
				return v, nil
			}
			c.cache.Invalidate(ctx, key)
		}
	}

	resp, err := c.Do(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}

	v, err := decodeJSON(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if key != "" {
		c.cache.Set(ctx, key, resp.Body)
	}
	return v, nil
}

// Do sends one request. Transport failures are wrapped as "HTTP request
// failed"; non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	target := c.baseURL + strings.TrimLeft(path, "/")
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if opts.JSON != nil {
		b, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	headers, err := c.buildHeaders(opts.Headers)
	if err != nil {
		return nil, err
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordRequest(method, 0, time.Since(start))
		c.logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	recordRequest(method, resp.StatusCode, elapsed)
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", elapsed),
	)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       raw,
			RequestID:  requestID,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
		RequestID:  requestID,
	}, nil
}

// buildHeaders merges, in increasing precedence: the built-in headers, the
// client defaults, the token source, and the per-call headers.
func (c *Client) buildHeaders(extra map[string]string) (map[string]string, error) {
	out := map[string]string{
		"User-Agent": c.userAgent,
		"Accept":     "application/json",
	}

	c.mu.RLock()
	for name, value := range c.headers {
		out[name] = value
	}
	c.mu.RUnlock()

	if c.tokenSource != nil {
		tok, err := c.tokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("obtain access token: %w", err)
		}
		out["Authorization"] = tok.Type() + " " + tok.AccessToken
	}

	for name, value := range extra {
		out[http.CanonicalHeaderKey(name)] = value
	}
	return out, nil
}

func decodeJSON(raw []byte) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	default:
		return nil, ErrUnexpectedShape
	}
}

// cacheKey identifies a GET response by base URL, path, query and a
// fingerprint of the headers sent with it, so clients with different
// credentials or APIs never share entries.
func (c *Client) cacheKey(path string, opts RequestOptions) (string, error) {
	headers, err := c.buildHeaders(opts.Headers)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%s:%s\n", name, headers[name])
	}

	key := MethodGet + " " + c.baseURL + strings.TrimLeft(path, "/")
	if len(opts.Query) > 0 {
		key += "?" + opts.Query.Encode()
	}
	return key + "#" + hex.EncodeToString(h.Sum(nil)[:16]), nil
}
