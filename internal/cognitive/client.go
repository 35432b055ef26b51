package cognitive

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

	"github.com/bz888/pubgqna/internal/logger"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	keyHeader       = "Ocp-Apim-Subscription-Key"
	requestIDHeader = "x-ms-client-request-id"

	defaultTimeout = 30 * time.Second
)

// Client is the shared REST plumbing for the hosted language, text analytics
// and speech services: key authentication, request ids, error decoding and a
// circuit breaker per service.
type Client struct {
	base    *url.URL
	key     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// ClientConfig holds the configuration for the client
type ClientConfig struct {
	Name     string
	Endpoint string
	Key      string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker. Defaults to 5.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open. Defaults to 30s.
	OpenTimeout time.Duration
}

// NewClient creates a new service client for the endpoint in config.
func NewClient(config ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(config.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse %s endpoint: %w", config.Name, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s endpoint %q is not an absolute URL", config.Name, config.Endpoint)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := config.OpenTimeout
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}

	log := logger.NewLogger(config.Name + " client")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isServiceHealthy,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		base:    base,
		key:     config.Key,
		http:    httpClient,
		breaker: breaker,
		log:     log,
	}, nil
}

// URL resolves path and query against the client's endpoint.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Request describes one call to a service.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Body        []byte
	Header      http.Header
}

// Do performs req through the circuit breaker and returns the response body.
// Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	requestURL := c.URL(req.Path, req.Query)
	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, err
	}

	for name, values := range req.Header {
		for _, v := range values {
			request.Header.Add(name, v)
		}
	}
	if req.ContentType != "" {
		request.Header.Set("Content-Type", req.ContentType)
	}
	request.Header.Set(keyHeader, c.key)
	requestID := uuid.NewString()
	request.Header.Set(requestIDHeader, requestID)

	start := time.Now()
	response, err := c.http.Do(request)
	if err != nil {
		c.log.Error("request ", requestID, " failed: ", err)
		return nil, err
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Infof("%s %s -> %s in %s (request %s)", method, req.Path, response.Status, time.Since(start), requestID)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, decodeAPIError(response.StatusCode, data)
	}
	return data, nil
}

// PostJSON marshals in, posts it to path and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	data, err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		Query:       query,
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// APIError is a non-2xx answer from a service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("service returned %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

func decodeAPIError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status}

	var body struct {
		Error *ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// IsAPIError reports whether err is an *APIError with the given status code.
func IsAPIError(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// isServiceHealthy reports whether err leaves the service in good standing.
// Rejected requests and cancelled calls do not count against the breaker;
// throttling, server errors and transport failures do.
func isServiceHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || IsAPIError(err, http.StatusTooManyRequests) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}
