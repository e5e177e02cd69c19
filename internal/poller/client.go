package poller

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to prevent resource exhaustion when polling many endpoints
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Request describes one rendered HTTP request for one endpoint tick.
// All template evaluation has already happened by the time a Request
// reaches the client.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string

	// Body is the rendered payload; empty for methods without one.
	Body string

	// ContentType is the Content-Type header value sent when Body is
	// non-empty.
	ContentType string

	// InsecureTLS skips TLS certificate verification for this request,
	// for endpoints serving self-signed certificates.
	InsecureTLS bool

	Timeout time.Duration
}

// Response holds the result of an HTTP request made by [Client].
//
// A non-2xx status is not treated as an error here: the body is preserved
// so extraction can still be attempted against error payloads. Transport
// failures are reported via Err.
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code. Zero if the request failed
	// before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Err contains any transport error that occurred during the request.
	Err error
}

// TimedOut reports whether the response's error was a timeout (either the
// per-request deadline or a transport-level timeout).
func (r Response) TimedOut() bool {
	if r.Err == nil {
		return false
	}
	if errors.Is(r.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(r.Err, &netErr) && netErr.Timeout()
}

// OK reports whether the request completed with a 2xx status.
func (r Response) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is an HTTP client wrapper for polling configured endpoints.
//
// Client uses per-request timeouts via context rather than a global
// timeout, allowing different endpoints to have different timeout
// configurations. Response bodies are limited to 1MB. No retries happen
// here; the next scheduled tick is the retry mechanism.
type Client struct {
	httpClient *http.Client

	// insecureClient serves requests with InsecureTLS set; kept separate
	// so disabling verification for one endpoint never weakens another.
	insecureClient *http.Client
}

func newTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		MaxConnsPerHost:     defaultMaxConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
		DisableKeepAlives:   false,
	}
}

// NewClient creates a new polling [Client] with connection pooling limits
// suited to polling many distinct hosts.
func NewClient() *Client {
	insecureTransport := newTransport()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &Client{
		// no default timeout - per-request timeouts via context
		httpClient:     &http.Client{Transport: newTransport()},
		insecureClient: &http.Client{Transport: insecureTransport},
	}
}

// Do performs a rendered request and returns a structured [Response].
//
// Do always returns a Response; transport errors are captured in the Err
// field rather than returned separately, which simplifies handling in the
// tick pipeline.
func (c *Client) Do(ctx context.Context, req Request) Response {
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Err:     fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if req.Body != "" && req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	hc := c.httpClient
	if req.InsecureTLS {
		hc = c.insecureClient
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	limitedReader := io.LimitReader(resp.Body, maxResponseBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Err:        fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pools.
// Safe to call multiple times; the client remains usable afterwards.
func (c *Client) Close() {
	if c == nil {
		return
	}
	for _, hc := range []*http.Client{c.httpClient, c.insecureClient} {
		if hc == nil {
			continue
		}
		if transport, ok := hc.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}
}
