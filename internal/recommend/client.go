package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/dram/internal/catalog"
)

var (
	// ErrRequestFailed covers transport errors and non-2xx statuses.
	ErrRequestFailed = errors.New("recommendation request failed")
	// ErrMalformedResponse is returned when a 2xx body is not a JSON array of records.
	ErrMalformedResponse = errors.New("malformed recommendation response")
)

// StatusError reports a non-2xx response. It matches ErrRequestFailed.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("service returned status %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrRequestFailed) match status errors.
func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Recommender fetches ranked recommendations for a catalog position.
// It is implemented by *Client and *Instrumented.
type Recommender interface {
	Recommend(ctx context.Context, req Request) ([]catalog.Record, error)
}

// Ensure Client implements Recommender at compile time.
var _ Recommender = (*Client)(nil)

// Client talks to the recommendation service.
type Client struct {
	endpoint       *url.URL
	http           *http.Client
	userAgent      string
	unbounded      Unbounded
	unboundedValue float64
}

const (
	// DefaultEndpoint is where the reference service listens.
	DefaultEndpoint  = "http://localhost:5000/predict"
	defaultUserAgent = "dram/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 4 << 10
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithUnbounded sets how an unbounded price limit is encoded.
func WithUnbounded(mode Unbounded, value float64) Option {
	return func(c *Client) {
		c.unbounded = mode
		c.unboundedValue = value
	}
}

// NewClient builds a Client for the given endpoint URL. A bare host:port is
// treated as http and gets the /predict path.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:       u,
		http:           &http.Client{Timeout: requestTimeout},
		userAgent:      defaultUserAgent,
		unbounded:      UnboundedInfinity,
		unboundedValue: DefaultUnboundedValue,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the resolved service URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Recommend posts the request and returns the ranked records in service order.
func (c *Client) Recommend(ctx context.Context, req Request) ([]catalog.Record, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if req.Index < 0 {
		return nil, fmt.Errorf("index %d out of range", req.Index)
	}

	body := encodeRequest(req, c.unbounded, c.unboundedValue)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}
	return decodeRecords(payload)
}

func decodeRecords(payload []byte) ([]catalog.Record, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedResponse)
	}
	var wire []wireRecord
	if err := json.Unmarshal(replaceNonFinite(payload), &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	records := make([]catalog.Record, 0, len(wire))
	for i, w := range wire {
		if !w.SimilarityScore.present {
			return nil, fmt.Errorf("%w: element %d has no similarity_score", ErrMalformedResponse, i)
		}
		records = append(records, w.record())
	}
	return records, nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(raw) > 0 {
		var body errorBody
		if json.Unmarshal(raw, &body) == nil {
			se.Message = strings.TrimSpace(body.Error)
		}
	}
	return se
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse service url %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse service url %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse service url %q: missing host", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/predict"
	}
	u.Fragment = ""
	return u, nil
}
