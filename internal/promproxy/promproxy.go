// Package promproxy forwards query-family operations to a Prometheus HTTP
// API. Successful upstream bodies pass through byte for byte; every kind
// of failure collapses into one uniform error envelope.
package promproxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds one upstream call when the caller does not set
// a tighter one.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an upstream error body ends up in the
// envelope's error message.
const maxErrorBody = 512

// ErrorEnvelope is the fixed shape returned for any failed operation:
// network error, timeout or non-2xx status alike.
type ErrorEnvelope struct {
	Status string      `json:"status"`
	Error  string      `json:"error"`
	Data   interface{} `json:"data"`
}

// Envelope wraps err in the uniform error shape.
func Envelope(err error) ErrorEnvelope {
	return ErrorEnvelope{Status: "error", Error: err.Error(), Data: nil}
}

// Client talks to one Prometheus server.
type Client struct {
	base   *url.URL
	client *http.Client
}

// New builds a Client for the given base URL. A timeout of 0 selects
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing Prometheus URL %s", baseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("Prometheus URL %s lacks scheme or host", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	return &Client{base: base, client: client}, nil
}

// get performs one upstream GET and returns the body verbatim on any 2xx
// status. Everything else becomes an error for the caller to envelope.
func (c *Client) get(ctx context.Context, apiPath string, params url.Values) (json.RawMessage, error) {
	u := *c.base
	u.Path = path.Join(u.Path, apiPath)
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building Prometheus request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", apiPath)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s response", apiPath)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(body))
		if len(message) > maxErrorBody {
			message = message[:maxErrorBody]
		}
		if message == "" {
			message = resp.Status
		}
		return nil, errors.Errorf("Prometheus returned %d: %s", resp.StatusCode, message)
	}
	return json.RawMessage(body), nil
}

// Query evaluates an instant query. ts may be empty for "now".
func (c *Client) Query(ctx context.Context, query, ts string) (json.RawMessage, error) {
	params := url.Values{"query": {query}}
	if ts != "" {
		params.Set("time", ts)
	}
	return c.get(ctx, "/api/v1/query", params)
}

// QueryRange evaluates a range query over [start, end] at the given step.
func (c *Client) QueryRange(ctx context.Context, query, start, end, step string) (json.RawMessage, error) {
	return c.get(ctx, "/api/v1/query_range", url.Values{
		"query": {query},
		"start": {start},
		"end":   {end},
		"step":  {step},
	})
}

// Series finds series matching the given selectors.
func (c *Client) Series(ctx context.Context, match []string, start, end string) (json.RawMessage, error) {
	params := url.Values{"match[]": match}
	if start != "" {
		params.Set("start", start)
	}
	if end != "" {
		params.Set("end", end)
	}
	return c.get(ctx, "/api/v1/series", params)
}

// Labels lists the known label names.
func (c *Client) Labels(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/v1/labels", nil)
}

// LabelValues lists the values of one label.
func (c *Client) LabelValues(ctx context.Context, label string) (json.RawMessage, error) {
	return c.get(ctx, path.Join("/api/v1/label", label, "values"), nil)
}

// Targets reports the scrape target discovery state.
func (c *Client) Targets(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/v1/targets", nil)
}

// Rules lists the loaded recording and alerting rules.
func (c *Client) Rules(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/v1/rules", nil)
}

// Alerts lists the currently active alerts.
func (c *Client) Alerts(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/v1/alerts", nil)
}
