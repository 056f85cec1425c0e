// Package practicum talks to the homework status API and interprets its payloads.
//
// The client performs exactly one GET per Fetch. Retrying is the caller's job;
// the poll loop does it by simply running again on its next tick.
package practicum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

	defaultTimeout      = 30 * time.Second
	maxResponseBodySize = 1 << 20 // 1MB

	fromDateParam = "from_date"
)

type Config struct {
	Endpoint string
	Token    string
	// Timeout bounds a single request, including reading the body.
	Timeout time.Duration
}

type Client struct {
	endpoint   string
	auth       string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient validates the endpoint and builds a client.
// httpClient may be nil; a pooled default is used then.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("endpoint must be an absolute URL (http:// or https://)")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("practicum token is empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{
			// no client-wide timeout; each request gets a context deadline
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     60 * time.Second,
			},
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		auth:       "OAuth " + cfg.Token,
		timeout:    timeout,
		httpClient: httpClient,
	}, nil
}

// Fetch requests all status changes since cursor (seconds since epoch).
//
// Errors are *RequestError, *DenialError, *StatusCodeError or *DecodeError.
func (c *Client) Fetch(ctx context.Context, cursor int64) (Payload, error) {
	info := RequestInfo{URL: c.endpoint, FromDate: cursor, Auth: "OAuth ***"}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return Payload{}, &RequestError{Request: info, Err: err}
	}
	q := req.URL.Query()
	q.Set(fromDateParam, strconv.FormatInt(cursor, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Payload{}, &RequestError{Request: info, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Payload{}, &RequestError{Request: info, Err: fmt.Errorf("read body: %w", err)}
	}

	payload, decErr := DecodePayload(body)
	if decErr == nil {
		if field, value, denied := payload.Denial(); denied {
			return Payload{}, &DenialError{Field: field, Value: value, Request: info}
		}
	}
	if resp.StatusCode != http.StatusOK {
		return Payload{}, &StatusCodeError{Code: resp.StatusCode, Request: info}
	}
	if decErr != nil {
		return Payload{}, &DecodeError{Request: info, Err: decErr}
	}
	return payload, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
