package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shareit/internal/worker"

	"github.com/rs/zerolog"
)

// Response is a server reply relayed to the gateway's caller as is.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Client forwards requests to the business server.
type Client struct {
	baseURL string
	http    *http.Client
	retry   worker.RetryPolicy
	logger  *zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, retry worker.RetryPolicy, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retry:   retry,
		logger:  logger,
	}
}

// Do sends one request. GETs are retried on transport errors and 5xx
// replies; the last 5xx reply is returned rather than an error. Other
// methods are sent exactly once.
func (c *Client) Do(ctx context.Context, method, pathAndQuery string, header http.Header, body []byte) (*Response, error) {
	policy := c.retry
	if method != http.MethodGet {
		policy.MaxRetries = 0
	}

	var last *Response
	err := policy.Do(ctx, func(attempt int) error {
		resp, err := c.send(ctx, method, pathAndQuery, header, body)
		if err != nil {
			c.logger.Warn().Err(err).Str("method", method).Str("path", pathAndQuery).Int("attempt", attempt).Msg("forward failed")
			return err
		}
		last = resp
		if resp.Status >= http.StatusInternalServerError {
			return fmt.Errorf("server replied %d", resp.Status)
		}
		return nil
	})
	if last != nil {
		return last, nil
	}
	return nil, err
}

func (c *Client) send(ctx context.Context, method, pathAndQuery string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, reader)
	if err != nil {
		return nil, worker.Permanent(fmt.Errorf("build request: %w", err))
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, pathAndQuery, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
