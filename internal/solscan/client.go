// ABOUTME: HTTP client for the Solscan Pro v2 upstream API
// ABOUTME: Issues one bounded GET per call and classifies every failure mode

package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds upstream calls when neither the caller nor the
// configuration says otherwise.
const DefaultTimeout = 30 * time.Second

// Status classifies the outcome of one upstream call.
type Status int

const (
	StatusOK Status = iota
	StatusTimeout
	StatusHTTPError
	StatusNetworkError
	StatusMalformedBody
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	case StatusHTTPError:
		return "http_error"
	case StatusNetworkError:
		return "network_error"
	case StatusMalformedBody:
		return "malformed_body"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single upstream GET. Failures are classified
// here rather than returned as Go errors because every failure mode renders
// into the tool response the same way.
type Result struct {
	Status     Status
	HTTPStatus int             // upstream status code, when a response arrived
	Body       json.RawMessage // response JSON; {"raw": text} when the body was not JSON
	Err        error           // underlying cause for timeout/network/malformed outcomes
	Timeout    time.Duration   // deadline that governed the call
}

// OK reports whether the upstream answered 2xx with a valid JSON body.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Config configures the upstream client.
type Config struct {
	BaseURL         string
	APIKey          string
	DefaultTimeout  time.Duration
	AllowedPrefixes []string
	Logger          *slog.Logger
	LogPreview      int
}

// Client calls the Solscan Pro v2 REST API. It is safe for concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	defaultTimeout time.Duration
	allowed        map[string]bool
	httpClient     *http.Client
	logger         *slog.Logger
	logPreview     int
}

// New creates a Client from the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("solscan: base URL is required")
	}

	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	preview := cfg.LogPreview
	if preview <= 0 {
		preview = 2000
	}

	allowed := make(map[string]bool, len(cfg.AllowedPrefixes))
	for _, p := range cfg.AllowedPrefixes {
		allowed[p] = true
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		defaultTimeout: timeout,
		allowed:        allowed,
		httpClient:     &http.Client{},
		logger:         logger.With("component", "solscan"),
		logPreview:     preview,
	}, nil
}

// Get issues one GET to {baseURL}/{endpoint} with the given query and
// deadline. A non-positive timeout means the configured default. The call is
// never retried; the first classified outcome is final.
func (c *Client) Get(ctx context.Context, endpoint string, query map[string]any, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	res := c.get(ctx, endpoint, query, timeout)
	res.Timeout = timeout
	return res
}

func (c *Client) get(ctx context.Context, endpoint string, query map[string]any, timeout time.Duration) Result {
	ep := strings.TrimLeft(endpoint, "/")
	head, _, _ := strings.Cut(ep, "/")
	head = strings.TrimSpace(head)
	if !c.allowed[head] {
		return Result{
			Status:     StatusHTTPError,
			HTTPStatus: http.StatusBadRequest,
			Body:       wrapError(fmt.Sprintf("forbidden endpoint prefix '%s'", head)),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + "/" + ep
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Status: StatusNetworkError, Err: fmt.Errorf("create request: %w", err)}
	}
	req.URL.RawQuery = encodeQuery(query).Encode()
	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("token", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Status: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: classifyTransportError(err), Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Info("SOLSCAN GET",
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"body", preview(string(body), c.logPreview),
	)

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !success {
		out := json.RawMessage(body)
		if !json.Valid(body) {
			out = wrapRaw(string(body))
		}
		return Result{Status: StatusHTTPError, HTTPStatus: resp.StatusCode, Body: out}
	}

	if !json.Valid(body) {
		return Result{
			Status:     StatusMalformedBody,
			HTTPStatus: resp.StatusCode,
			Body:       wrapRaw(string(body)),
			Err:        errors.New("response body is not valid JSON"),
		}
	}

	return Result{Status: StatusOK, HTTPStatus: resp.StatusCode, Body: body}
}

// classifyTransportError separates deadline hits from connection-level
// failures. Parent-context cancellation counts as a network failure, not a
// timeout.
func classifyTransportError(err error) Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return StatusTimeout
	}
	return StatusNetworkError
}

// encodeQuery turns decoded JSON arguments into URL query parameters.
// Null values are dropped, arrays expand into repeated parameters, scalars
// are stringified, and composite values are embedded as compact JSON.
func encodeQuery(query map[string]any) url.Values {
	values := url.Values{}
	for k, v := range query {
		if v == nil {
			continue
		}
		if items, ok := v.([]any); ok {
			for _, item := range items {
				if item == nil {
					continue
				}
				values.Add(k, stringifyParam(item))
			}
			continue
		}
		values.Add(k, stringifyParam(v))
	}
	return values
}

func stringifyParam(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		// Objects and nested arrays travel as compact JSON
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func wrapRaw(text string) json.RawMessage {
	data, _ := json.Marshal(struct {
		Raw string `json:"raw"`
	}{Raw: text})
	return data
}

func wrapError(msg string) json.RawMessage {
	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: msg})
	return data
}

// preview truncates s for log output.
func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…<truncated>"
}
