package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/logger"
)

// MAX_RESPONSE_BYTES caps how much of a response body is read
const MAX_RESPONSE_BYTES = 1 << 20

// ErrTransport marks failures where no HTTP response was received
var ErrTransport = errors.New("transport error")

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsClientError reports a 4xx status
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// Get performs an idempotent GET. Transport errors, 429 and 5xx responses
	// are retried with exponential backoff; other responses are returned as is.
	Get(ctx context.Context, url string, header http.Header) (*Response, error)

	// Do performs a single request without retry. Use it for anything that is
	// not safe to repeat, such as payments.
	Do(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error)
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client  *http.Client
	backoff func() backoff.BackOff
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = 30 * time.Second
			b.Multiplier = 2.0
			b.RandomizationFactor = 0.5
			return b
		},
	}
}

// NewHTTPClientWithBackOff creates a client with a custom retry policy
func NewHTTPClientWithBackOff(timeout time.Duration, policy func() backoff.BackOff) HTTPClient {
	return &RealHTTPClient{
		client:  &http.Client{Timeout: timeout},
		backoff: policy,
	}
}

// Get performs a GET request with retry
func (c *RealHTTPClient) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	var resp *Response

	operation := func() error {
		r, err := c.Do(ctx, http.MethodGet, url, header, nil)
		if err != nil {
			return err
		}

		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= http.StatusInternalServerError {
			logger.WarnCtx(ctx, "retryable response, retrying with backoff",
				zap.String("url", url),
				zap.Int("status", r.StatusCode))
			return fmt.Errorf("%w: status %d", ErrTransport, r.StatusCode)
		}

		resp = r
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.backoff(), ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return resp, nil
}

// Do performs a single request and reads the whole body
func (c *RealHTTPClient) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("url", url))
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MAX_RESPONSE_BYTES))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrTransport, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
