// Package rest executes request descriptors against REST APIs described by
// discovery documents.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shamank/discovery-sdk-go/pkg/auth"
	"github.com/shamank/discovery-sdk-go/pkg/request"
	"github.com/shamank/discovery-sdk-go/pkg/transport"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	protocol = "rest"

	// DefaultUserAgent is sent when no other agent is configured.
	DefaultUserAgent = "discovery-sdk-go"

	defaultMaxBody = 32 << 20
)

// Executor performs requests over HTTP. It is safe for concurrent use.
type Executor struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	baseURL   string
	maxBody   int64
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		if c != nil {
			e.http = c
		}
	}
}

// WithRateLimit throttles the executor to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *Executor) { e.limiter = transport.NewLimiter(rps, burst) }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *Executor) { e.userAgent = ua }
}

// WithBaseURL replaces the endpoint derived from the document, e.g. to
// target a local emulator.
func WithBaseURL(u string) Option {
	return func(e *Executor) { e.baseURL = u }
}

// WithMaxResponseSize caps how many body bytes are read.
func WithMaxResponseSize(n int64) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxBody = n
		}
	}
}

// NewExecutor returns an executor with a 60 second HTTP timeout and no rate
// limit unless configured otherwise.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		http:      &http.Client{Timeout: 60 * time.Second},
		userAgent: DefaultUserAgent,
		maxBody:   defaultMaxBody,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Do implements request.Executor.
func (e *Executor) Do(ctx context.Context, r *request.Request) (*request.Response, error) {
	httpReq, err := e.newHTTPRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := transport.Throttle(ctx, e.limiter, protocol); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := e.http.Do(httpReq)
	if err != nil {
		transport.ObserveCall(protocol, r.MethodID(), "error", time.Since(start))
		zap.L().Error("http request failed", zap.String("method", r.MethodID()),
			zap.String("request_id", r.ID()), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", httpReq.Method, httpReq.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	transport.ObserveCall(protocol, r.MethodID(), strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	zap.L().Debug("http request done", zap.String("method", r.MethodID()),
		zap.String("request_id", r.ID()), zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newStatusError(r.MethodID(), resp.StatusCode, body)
	}
	return &request.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (e *Executor) newHTTPRequest(ctx context.Context, r *request.Request) (*http.Request, error) {
	m, ok := r.Method()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, r.MethodID())
	}
	base := e.baseURL
	if base == "" {
		base = r.Metadata().Endpoint()
	}
	if base == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoEndpoint, r.Metadata().Name)
	}

	target, err := buildURL(base, r.Metadata(), m, r.Params())
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if r.HasResource() && r.Resource() != nil {
		data, err := json.Marshal(r.Resource())
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := m.HTTPMethod
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set(auth.RequestIDHeader, r.ID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if a := r.AuthClient(); a != nil {
		creds, err := a.Credentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("credentials for %s: %w", r.MethodID(), err)
		}
		for k, v := range creds {
			req.Header.Set(k, v)
		}
	}
	return req, nil
}
