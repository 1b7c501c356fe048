// Package aranet implements the CloudClient port against the Aranet Cloud
// HTTP API.
package aranet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/aranetools/aranetcloud/internal/domain/model"
	"github.com/aranetools/aranetcloud/internal/domain/port/driven"
)

// DefaultEndpoint is the production Aranet Cloud API base URL.
const DefaultEndpoint = "https://aranet.cloud/api"

// Compile-time interface satisfaction check.
var _ driven.CloudClient = (*Client)(nil)

// Client implements the driven.CloudClient port on net/http with an
// httpcache memory transport, so unchanged GET responses are served from
// the conditional-request cache.
type Client struct {
	http     *http.Client
	endpoint string
	username string
	password string
}

// NewClient creates a cloud client for the given endpoint and credentials.
// An empty endpoint falls back to DefaultEndpoint.
func NewClient(endpoint, username, password string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   timeout,
		},
		endpoint: strings.TrimRight(endpoint, "/"),
		username: username,
		password: password,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and
// endpoint. This constructor is intended for testing, allowing injection of
// an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, endpoint, username, password string) *Client {
	return &Client{
		http:     httpClient,
		endpoint: strings.TrimRight(endpoint, "/"),
		username: username,
		password: password,
	}
}

// Login exchanges the configured credentials for login data via
// POST /user/login. A 401 response maps to driven.ErrNotAuthorized; any
// other failure is wrapped with the endpoint for context.
func (c *Client) Login(ctx context.Context) (*model.LoginData, error) {
	slog.Info("making login request to aranet cloud", "endpoint", c.endpoint)

	body, err := json.Marshal(map[string]string{
		"login": c.username,
		"passw": c.password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/user/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request to %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("login to %s: %w", c.endpoint, driven.ErrNotAuthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("login to %s: unexpected status %s", c.endpoint, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read login response: %w", err)
	}

	return model.ParseLoginData(raw)
}

// FetchSensors lists the sensors of the session's space via
// GET /sensors/{space}?fields=...
func (c *Client) FetchSensors(ctx context.Context, sess model.Session, fields []string) ([]model.Sensor, error) {
	if len(fields) == 0 {
		fields = []string{"metrics", "telemetry", "name"}
	}

	query := url.Values{}
	query.Set("fields", strings.Join(fields, ","))

	var envelope struct {
		Data struct {
			Items []model.Sensor `json:"items"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, sess, "/sensors/"+sess.SpaceID, query, &envelope); err != nil {
		return nil, err
	}

	slog.Debug("fetched sensor listing", "count", len(envelope.Data.Items), "fields", fields)
	return envelope.Data.Items, nil
}

// FetchSensorExport retrieves a window of one sensor's history via
// GET /sensors/{space}/sensor/{id}/export and decodes the delimited payload.
func (c *Client) FetchSensorExport(ctx context.Context, sess model.Session, q model.ExportQuery) (*model.SensorExport, error) {
	metrics := q.Metrics
	if len(metrics) == 0 {
		metrics = model.MetricIDs()
	}
	timezone := q.Timezone
	if timezone == "" {
		timezone = "0000"
	}

	query := url.Values{}
	query.Set("metric", strings.Join(metrics, ","))
	query.Set("from", q.From)
	query.Set("to", q.To)
	query.Set("timezone", timezone)

	path := "/sensors/" + sess.SpaceID + "/sensor/" + q.SensorID + "/export"
	resp, err := c.get(ctx, sess, path, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	export, err := decodeExport(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode export for sensor %s: %w", q.SensorID, err)
	}

	slog.Info("downloaded sensor history", "sensor", q.SensorID, "rows", len(export.Rows))
	return export, nil
}

// FetchMetrics returns the metric catalog of the space.
func (c *Client) FetchMetrics(ctx context.Context, sess model.Session) ([]model.Metric, error) {
	var envelope struct {
		Data struct {
			Items []model.Metric `json:"items"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, sess, "/metrics/"+sess.SpaceID, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data.Items, nil
}

// FetchAlarmRules returns the alarm rules configured for the space.
func (c *Client) FetchAlarmRules(ctx context.Context, sess model.Session) ([]model.AlarmRule, error) {
	var envelope struct {
		Data struct {
			Items []model.AlarmRule `json:"items"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, sess, "/alarms/"+sess.SpaceID+"/rules", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data.Items, nil
}

// FetchGateways returns the base stations registered in the space.
func (c *Client) FetchGateways(ctx context.Context, sess model.Session) ([]model.Gateway, error) {
	var envelope struct {
		Devices []model.Gateway `json:"devices"`
	}
	if err := c.getJSON(ctx, sess, "/gateways/"+sess.SpaceID, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Devices, nil
}

// get performs a bearer-authenticated GET and returns the response with a
// still-open body. 401 maps to driven.ErrNotAuthorized; any other non-2xx
// status is an error carrying the path and status line.
func (c *Client) get(ctx context.Context, sess model.Session, path string, query url.Values) (*http.Response, error) {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s%s: %w", c.endpoint, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", path, driven.ErrNotAuthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s%s: unexpected status %s", c.endpoint, path, resp.Status)
	}

	return resp, nil
}

// getJSON performs a bearer-authenticated GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, sess model.Session, path string, query url.Values, v any) error {
	resp, err := c.get(ctx, sess, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}
