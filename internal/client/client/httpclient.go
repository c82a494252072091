package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/models"
	"github.com/dmitrijs2005/cloudkeeper/internal/logging"
)

// RequestIDHeader carries a per-request id for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

const maxResponseBody = 1 << 20

// Options configure an HTTPClient.
type Options struct {
	BaseURL   string
	Endpoints Endpoints
	// Jar receives Set-Cookie responses; nil disables cookies.
	Jar  http.CookieJar
	Hook RequestHook
	// CSRFHeader is used by Logout to replay a captured CSRF token.
	CSRFHeader string
	// Timeout bounds each request; zero means none.
	Timeout time.Duration
	// RequestsPerSecond throttles dispatch; zero means unlimited.
	RequestsPerSecond float64
	Metrics           *Metrics
	Transport         http.RoundTripper
	Logger            logging.Logger
}

type HTTPClient struct {
	base       string
	endpoints  Endpoints
	http       *http.Client
	hook       RequestHook
	csrfHeader string
	limiter    *rate.Limiter
	log        logging.Logger
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(opts Options) (*HTTPClient, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.Metrics != nil {
		transport = opts.Metrics.RoundTripper(transport)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	endpoints := opts.Endpoints
	if endpoints == (Endpoints{}) {
		endpoints = DefaultEndpoints()
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	return &HTTPClient{
		base:       strings.TrimRight(u.String(), "/"),
		endpoints:  endpoints,
		http:       &http.Client{Jar: opts.Jar, Timeout: opts.Timeout, Transport: transport},
		hook:       opts.Hook,
		csrfHeader: opts.CSRFHeader,
		limiter:    limiter,
		log:        log.With("component", "http"),
	}, nil
}

// do is the single pipeline: build, decorate, hook, throttle, send, decode.
// decorate runs before the hook so the hook has the final word on auth
// headers.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any, decorate ...func(*http.Request)) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	for _, d := range decorate {
		d(req)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	if c.hook != nil {
		c.hook(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "request_id", requestID, "err", err)
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", ErrUnavailable, path, err)
	}

	c.log.Debug(ctx, "request done", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data, requestID)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) FetchCSRF(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.endpoints.CSRF, nil, nil)
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	var u models.User
	err := c.do(ctx, http.MethodPost, c.endpoints.Login, creds, &u)
	return u, err
}

func (c *HTTPClient) ObtainToken(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	var p models.TokenPair
	err := c.do(ctx, http.MethodPost, c.endpoints.Token, creds, &p)
	return p, err
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error) {
	var p models.TokenPair
	err := c.do(ctx, http.MethodPost, c.endpoints.TokenRefresh, map[string]string{"refresh": refresh}, &p)
	return p, err
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	var u models.User
	err := c.do(ctx, http.MethodPost, c.endpoints.Register, reg, &u)
	return u, err
}

func (c *HTTPClient) Me(ctx context.Context) (models.User, error) {
	var u models.User
	err := c.do(ctx, http.MethodGet, c.endpoints.Me, nil, &u)
	return u, err
}

func (c *HTTPClient) Logout(ctx context.Context, session credentials.Credential) error {
	method := c.endpoints.LogoutMethod
	if method == "" {
		method = http.MethodGet
	}
	return c.do(ctx, method, c.endpoints.Logout, nil, nil, func(req *http.Request) {
		for _, ck := range session.Session {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
		if session.CSRFToken != "" && c.csrfHeader != "" && IsStateChanging(req.Method) {
			req.Header.Set(c.csrfHeader, session.CSRFToken)
		}
		if session.AccessToken != "" {
			session.OAuth2().SetAuthHeader(req)
		}
	})
}
