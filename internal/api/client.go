// Package api provides the authenticated HTTP client for the mindtalk API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/drmind/mindtalk-cli/internal/auth"
	"github.com/drmind/mindtalk-cli/internal/config"
	"github.com/drmind/mindtalk-cli/internal/output"
	"github.com/drmind/mindtalk-cli/internal/querycache"
	"github.com/drmind/mindtalk-cli/internal/version"
)

const refreshPath = "/auth/refresh"

// Client is an HTTP client for the mindtalk API. It attaches the stored
// access token to every request and recovers from one expired-token 401
// per request by refreshing through its coordinator.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	store          *auth.Store
	coordinator    *auth.Coordinator
	cache          *querycache.Cache
	hooks          Hooks
	logger         *slog.Logger
	refreshTimeout time.Duration
}

// Response wraps an unwrapped API response.
type Response struct {
	Data       json.RawMessage
	StatusCode int
	Headers    http.Header
	ResultCode string
	FromCache  bool
}

// UnmarshalData unmarshals the response data into the given value.
func (r *Response) UnmarshalData(v any) error {
	return json.Unmarshal(r.Data, v)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHooks sets the observer for operations, requests and refresh cycles.
func WithHooks(h Hooks) Option {
	return func(c *Client) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCache sets the query cache. A nil cache disables caching.
func WithCache(qc *querycache.Cache) Option {
	return func(c *Client) {
		c.cache = qc
	}
}

// WithRefreshTimeout bounds each token refresh exchange.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// NewClient creates a client for cfg.BaseURL backed by store.
func NewClient(cfg *config.Config, store *auth.Store, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:        config.NormalizeBaseURL(cfg.BaseURL),
		store:          store,
		hooks:          NoopHooks{},
		logger:         slog.New(slog.DiscardHandler),
		refreshTimeout: cfg.RefreshTimeout,
	}
	if cfg.CacheEnabled {
		c.cache = querycache.New(cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(c)
	}

	c.coordinator = auth.NewCoordinator(store, c,
		auth.WithRefreshTimeout(c.refreshTimeout),
		auth.WithRefreshHooks(c.hooks),
	)
	return c
}

// Store returns the credential store.
func (c *Client) Store() *auth.Store {
	return c.store
}

// Coordinator returns the token refresh coordinator.
func (c *Client) Coordinator() *auth.Coordinator {
	return c.coordinator
}

// Cache returns the query cache, or nil when caching is disabled.
func (c *Client) Cache() *querycache.Cache {
	return c.cache
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, request{method: http.MethodGet, path: path})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, request{method: http.MethodPut, path: path, body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, request{method: http.MethodPatch, path: path, body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, request{method: http.MethodDelete, path: path})
}

// RefreshSession runs a refresh cycle outside the 401 flow.
func (c *Client) RefreshSession(ctx context.Context) error {
	_, err := c.coordinator.Refresh(ctx)
	return refreshFailure(err)
}

// Refresh exchanges a refresh token for a new pair. It implements
// auth.Refresher and is only called by the coordinator; a 401 here is a
// rejected refresh token, never a reason to refresh again.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	req := request{
		method: http.MethodPost,
		path:   refreshPath,
		body:   map[string]string{"refreshToken": refreshToken},
		public: true,
	}
	resp, err := c.send(ctx, req, attempt{})
	if err != nil {
		return nil, err
	}

	var pair auth.TokenPair
	if err := resp.UnmarshalData(&pair); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	return &pair, nil
}

// request is one logical API call.
type request struct {
	method string
	path   string
	body   any
	// public requests answer 401 with an auth error instead of refreshing.
	public bool

	payload []byte
	id      string
}

// attempt is threaded through the call chain so the retry marker never
// lives on shared request state.
type attempt struct {
	retried bool
}

func (c *Client) do(ctx context.Context, req request) (*Response, error) {
	req.path = normalizePath(req.path)

	if req.method == http.MethodGet && c.cache != nil {
		if data, ok := c.cache.Get(req.path); ok {
			info := RequestInfo{Method: req.method, Path: req.path}
			ctx = c.hooks.OnRequestStart(ctx, info)
			c.hooks.OnRequestEnd(ctx, info, RequestResult{StatusCode: http.StatusOK, FromCache: true})
			c.logger.Debug("cache hit", "path", req.path)
			return &Response{Data: data, StatusCode: http.StatusOK, FromCache: true}, nil
		}
	}

	resp, err := c.send(ctx, req, attempt{})
	if err != nil {
		if output.IsAuthExpired(err) && c.cache != nil {
			c.cache.Clear()
		}
		return nil, err
	}

	if c.cache != nil {
		if req.method == http.MethodGet {
			c.cache.Set(req.path, resp.Data)
		} else {
			n := c.cache.Invalidate(resourceRoot(req.path), stripQuery(req.path))
			c.logger.Debug("cache invalidated", "path", req.path, "entries", n)
		}
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req request, at attempt) (*Response, error) {
	if req.payload == nil && req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		req.payload = payload
	}
	if req.id == "" {
		req.id = uuid.NewString()
	}

	status, headers, body, err := c.roundTrip(ctx, req, at)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		return c.handleUnauthorized(ctx, req, at, body)
	}
	return decodeResponse(req.path, status, headers, body)
}

// handleUnauthorized runs the refresh-and-replay flow for a 401.
func (c *Client) handleUnauthorized(ctx context.Context, req request, at attempt, body []byte) (*Response, error) {
	if req.public {
		msg := errorMessage(body)
		if msg == "" {
			msg = "Authentication failed"
		}
		return nil, output.ErrAuth(msg)
	}

	if at.retried {
		// The refreshed token was rejected too. Nothing stored is usable.
		if err := c.store.Clear(); err != nil {
			c.logger.Debug("clearing credentials failed", "error", err)
		}
		return nil, output.ErrAuthExpired(errors.New("refreshed token rejected"))
	}

	c.logger.Debug("access token rejected, refreshing", "method", req.method, "path", req.path)
	if _, err := c.coordinator.Refresh(ctx); err != nil {
		return nil, refreshFailure(err)
	}
	return c.send(ctx, req, attempt{retried: true})
}

// refreshFailure maps a coordinator error to what callers see. Caller
// cancellation passes through untouched.
func refreshFailure(err error) error {
	var refreshErr *auth.RefreshError
	if errors.As(err, &refreshErr) {
		return output.ErrAuthExpired(err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, req request, at attempt) (int, http.Header, []byte, error) {
	info := RequestInfo{Method: req.method, Path: req.path, RequestID: req.id, Replay: at.retried}
	ctx = c.hooks.OnRequestStart(ctx, info)
	start := time.Now()

	status, headers, body, err := c.exchange(ctx, req)

	c.hooks.OnRequestEnd(ctx, info, RequestResult{
		StatusCode: status,
		Duration:   time.Since(start),
		Err:        err,
	})
	c.logger.Debug("http request",
		"method", req.method,
		"path", req.path,
		"status", status,
		"replay", at.retried,
		"request_id", req.id,
		"duration", time.Since(start))
	return status, headers, body, err
}

func (c *Client) exchange(ctx context.Context, req request) (int, http.Header, []byte, error) {
	var bodyReader io.Reader
	if req.payload != nil {
		bodyReader = strings.NewReader(string(req.payload))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, bodyReader)
	if err != nil {
		return 0, nil, nil, err
	}

	// The token is read per attempt, so a replay carries whatever the
	// coordinator just saved.
	if token := c.store.AccessToken(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("User-Agent", version.UserAgent())
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", req.id)
	if req.payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, nil, ctxErr
		}
		return 0, nil, nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, resp.Header, nil, output.ErrNetwork(fmt.Errorf("failed to read response: %w", err))
	}
	return resp.StatusCode, resp.Header, body, nil
}

// decodeResponse maps a non-401 response to a Response or an error.
func decodeResponse(path string, status int, headers http.Header, body []byte) (*Response, error) {
	switch {
	case status >= 200 && status < 300:
		env, err := DecodeEnvelope(body)
		if err != nil {
			return nil, err
		}
		data, err := env.Payload()
		if err != nil {
			return nil, err
		}
		return &Response{
			Data:       data,
			StatusCode: status,
			Headers:    headers,
			ResultCode: env.ResultCode,
		}, nil

	case status == http.StatusTooManyRequests:
		return nil, output.ErrRateLimit(parseRetryAfter(headers.Get("Retry-After")))

	case status == http.StatusForbidden:
		msg := errorMessage(body)
		if msg == "" {
			msg = "Access denied"
		}
		return nil, output.ErrForbidden(msg)

	case status == http.StatusNotFound:
		e := output.ErrNotFound("Resource", stripQuery(path))
		if msg := errorMessage(body); msg != "" {
			e.Message = msg
		}
		return nil, e

	case status >= 500:
		return nil, &output.Error{
			Code:       output.CodeAPI,
			Message:    fmt.Sprintf("Server error (%d)", status),
			HTTPStatus: status,
			Retryable:  status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout,
		}

	default:
		// Some validation failures arrive as a failure envelope on a 4xx.
		if env, err := DecodeEnvelope(body); err == nil && env.Kind == KindFailure {
			e := output.ErrBusiness(env.ResultCode, env.Msg)
			e.HTTPStatus = status
			return nil, e
		}
		if msg := errorMessage(body); msg != "" {
			return nil, output.ErrAPI(status, msg)
		}
		return nil, output.ErrAPI(status, fmt.Sprintf("Request failed (HTTP %d)", status))
	}
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// resourceRoot returns the first path segment: "/sessions/7/messages" -> "/sessions".
func resourceRoot(path string) string {
	path = stripQuery(path)
	if i := strings.IndexByte(path[1:], '/'); i >= 0 {
		return path[:i+1]
	}
	return path
}

// parseRetryAfter parses the Retry-After header value.
func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return seconds
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return int(d.Seconds() + 0.5)
		}
	}
	return 0
}

// SetLogger replaces the debug logger after construction.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}
