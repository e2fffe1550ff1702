// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"time"

	apperrors "business-research/internal/common/errors"
	"business-research/internal/common/logger"
	"business-research/internal/common/metrics"
	"business-research/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("business-research/http")

// Transport selects the network path for a request.
type Transport string

const (
	// TransportProxy routes through the scraping proxy with its own CA bundle.
	TransportProxy Transport = "proxy"
	// TransportDirect dials the target without a proxy.
	TransportDirect Transport = "direct"
)

// Request is a fully formed request descriptor.
type Request struct {
	Method    string
	URL       string
	Header    http.Header
	Body      []byte
	Transport Transport
}

// Response is a successful (2xx) reply with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
	// Timeout bounds a single attempt. Zero leaves it to the caller's context.
	Timeout      time.Duration
	ProxyURL     string
	CACertPath   string
	MaxBodyBytes int64
}

// Client is the retrying fetcher every provider client goes through. It holds
// no per-call state and is safe for concurrent use.
type Client struct {
	clients      map[Transport]*http.Client
	maxAttempts  int
	baseDelay    time.Duration
	jitter       bool
	maxBodyBytes int64
	sleep        func(ctx context.Context, d time.Duration) error
	logger       logger.Logger
}

func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 16 << 20
	}

	proxied, err := newProxyTransport(opts.ProxyURL, opts.CACertPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		clients: map[Transport]*http.Client{
			TransportDirect: {Timeout: opts.Timeout},
			TransportProxy:  {Timeout: opts.Timeout, Transport: proxied},
		},
		maxAttempts:  opts.MaxAttempts,
		baseDelay:    opts.BaseDelay,
		jitter:       opts.Jitter,
		maxBodyBytes: opts.MaxBodyBytes,
		sleep:        sleepContext,
		logger:       log,
	}, nil
}

// newProxyTransport builds the proxy transport. An empty proxy URL yields a
// plain transport so local runs and tests work without the proxy.
func newProxyTransport(proxyURL, caCertPath string) (http.RoundTripper, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	if caCertPath != "" {
		pem, err := os.ReadFile(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("read proxy CA certificate: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("proxy CA certificate %s contains no PEM certificates", caCertPath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}

	return transport, nil
}

// Fetch executes req, retrying transport errors and non-2xx statuses with a
// linear backoff of BaseDelay*attempt. It never returns an error directly:
// exhaustion yields a Failure wrapping ErrTransportExhausted and the last error.
func (c *Client) Fetch(ctx context.Context, req *Request) models.FetchOutcome[*Response] {
	transport := req.Transport
	if transport == "" {
		transport = TransportDirect
	}

	ctx, span := tracer.Start(ctx, "http.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("fetch.transport", string(transport)),
	)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.do(ctx, transport, req)
		if err == nil {
			metrics.FetchAttempts.WithLabelValues(string(transport), "success").Inc()
			span.SetAttributes(attribute.Int("fetch.attempts", attempt))
			return models.Success(resp)
		}
		lastErr = err
		metrics.FetchAttempts.WithLabelValues(string(transport), "failure").Inc()

		c.logger.Warn("fetch attempt failed", map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": c.maxAttempts,
			"transport":   string(transport),
			"error":       err.Error(),
		})

		if ctx.Err() != nil {
			break
		}
		if attempt < c.maxAttempts {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				break
			}
		}
	}

	if ctx.Err() != nil {
		lastErr = fmt.Errorf("%v (context: %w)", lastErr, ctx.Err())
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "transport exhausted")
	return models.Failure[*Response](fmt.Errorf("%w: %w", apperrors.ErrTransportExhausted, lastErr))
}

func (c *Client) do(ctx context.Context, transport Transport, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.clients[transport].Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseDelay * time.Duration(attempt)
	if c.jitter && d > 0 {
		d += time.Duration(rand.Int63n(int64(d)/4 + 1))
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
