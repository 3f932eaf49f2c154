package backend

import (
	"bytes"
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

	"condowater/infrastructure/metrics"
	"condowater/infrastructure/session"
	"condowater/models"
)

const defaultTimeout = 30 * time.Second

var ErrNotConfigured = errors.New("backend: base url is required")

// Config configures the billing backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// HTTPClient replaces the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client calls the billing backend REST API. A Client is bound to at most one
// token session; use WithTokens to get a per-session copy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *session.TokenSession
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}, nil
}

// WithTokens returns a copy of c that authenticates with ts.
func (c *Client) WithTokens(ts *session.TokenSession) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *Client) LatestReadings(ctx context.Context) ([]models.LatestReading, error) {
	var out []models.LatestReading
	err := c.doJSON(ctx, "latest-readings", http.MethodGet, "/api/latest-readings", nil, &out)
	return out, err
}

// ProcessReadings submits a month of readings. A 2xx response without data is
// returned as is; callers decide whether the pipeline succeeded.
func (c *Client) ProcessReadings(ctx context.Context, payload models.ProcessReadingsPayload) (models.ProcessReadingsResponse, error) {
	var out models.ProcessReadingsResponse
	err := c.doJSON(ctx, "process-readings", http.MethodPost, "/api/process-readings", payload, &out)
	return out, err
}

func (c *Client) Units(ctx context.Context) ([]models.Unit, error) {
	var out []models.Unit
	err := c.doJSON(ctx, "units", http.MethodGet, "/api/units", nil, &out)
	return out, err
}

func (c *Client) UnitBills(ctx context.Context, codigoLote int) ([]models.WaterBill, error) {
	var out []models.WaterBill
	path := "/api/units/" + strconv.Itoa(codigoLote) + "/bills"
	err := c.doJSON(ctx, "unit-bills", http.MethodGet, path, nil, &out)
	return out, err
}

// MonthlySummary fetches the summary of yearMonth (YYYY-MM). sortBy is one of
// display_name, cost_rs or consumption_m3; order is asc or desc. Unknown values
// are left out of the request.
func (c *Client) MonthlySummary(ctx context.Context, yearMonth, sortBy, order string) (models.MonthlySummary, error) {
	path := "/api/monthly-summary/" + url.PathEscape(yearMonth)
	if param, ok := SummarySortParam(sortBy); ok {
		path += "/" + param
	}
	if order == "asc" || order == "desc" {
		path += "?order=" + order
	}
	var out models.MonthlySummary
	err := c.doJSON(ctx, "monthly-summary", http.MethodGet, path, nil, &out)
	return out, err
}

// SummarySortParam maps a summary column to the backend's sort segment.
func SummarySortParam(sortBy string) (string, bool) {
	switch sortBy {
	case "display_name":
		return "a", true
	case "cost_rs":
		return "b", true
	case "consumption_m3":
		return "c", true
	default:
		return "", false
	}
}

// UnitReport downloads the PDF report of a unit for yearMonth (YYYY-MM).
func (c *Client) UnitReport(ctx context.Context, codigoLote int, yearMonth string) ([]byte, error) {
	path := "/api/report/unit/" + strconv.Itoa(codigoLote) + "/" + url.PathEscape(yearMonth)
	resp, err := c.do(ctx, "unit-report", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read report: %w", err)
	}
	return body, nil
}

// Login authenticates against the backend. The returned token is not stored;
// the caller decides which token session receives it.
func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.doJSON(ctx, "login", http.MethodPost, "/api/login", models.LoginRequest{
		EmailUsuario: email,
		SenhaUsuario: password,
	}, &out)
	if err == nil && out.Token == "" {
		err = errors.New("backend: login response has no token")
	}
	return out, err
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.doJSON(ctx, "register", http.MethodPost, "/api/register", req, &out)
	return out, err
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, body, out any) error {
	resp, err := c.do(ctx, endpoint, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s response: %w", endpoint, err)
	}
	return nil
}

// do sends the request and returns the response only for 2xx statuses; any
// other status is turned into an *APIError.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body any) (resp *http.Response, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveBackendCall(endpoint, err, time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	slog.Debug("backend request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("authorization", MaskAuthorization(req.Header.Get("Authorization"))),
	)

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s request failed: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseError(resp)
	}
	return resp, nil
}
