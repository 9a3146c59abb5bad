package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftmap/internal/analytics"
	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// HTTPClient implements DataSource by calling the liftmap REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// derives the user from the connection, so userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// StatusError is a non-200 answer from the REST API.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Code, e.Body)
}

func rateParams(days int, mode volume.Mode, selection []string) url.Values {
	v := url.Values{}
	v.Set("days", strconv.Itoa(days))
	v.Set("mode", string(mode))
	if len(selection) > 0 {
		v.Set("muscles", strings.Join(selection, ","))
	}
	return v
}

func (c *HTTPClient) Heatmap(ctx context.Context, _ int, q HeatmapQuery) (volume.Heatmap, error) {
	v := url.Values{}
	v.Set("mode", string(q.Mode))
	switch {
	case q.Days > 0:
		v.Set("days", strconv.Itoa(q.Days))
	default:
		if !q.Start.IsZero() {
			v.Set("start", q.Start.Format(time.RFC3339))
		}
		if !q.End.IsZero() {
			v.Set("end", q.End.Format(time.RFC3339))
		}
	}
	var h volume.Heatmap
	err := c.get(ctx, "/api/v1/heatmap", v, &h)
	return h, err
}

func (c *HTTPClient) WeeklyRate(ctx context.Context, _ int, days int, mode volume.Mode, selection []string) (analytics.WeeklyRateView, error) {
	var view analytics.WeeklyRateView
	err := c.get(ctx, "/api/v1/rates/weekly", rateParams(days, mode, selection), &view)
	return view, err
}

func (c *HTTPClient) Delta(ctx context.Context, _ int, days int, mode volume.Mode, selection []string) (analytics.DeltaView, error) {
	var view analytics.DeltaView
	err := c.get(ctx, "/api/v1/rates/delta", rateParams(days, mode, selection), &view)
	return view, err
}

func (c *HTTPClient) ExerciseHistory(ctx context.Context, _ int, exercise string) ([]models.HistoryEntry, error) {
	var history []models.HistoryEntry
	err := c.get(ctx, "/api/v1/exercises/"+url.PathEscape(exercise)+"/history", nil, &history)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, nil
	}
	return history, err
}

func (c *HTTPClient) ExerciseTrend(ctx context.Context, _ int, exercise string, mode trend.Mode) (models.TrendResult, error) {
	v := url.Values{}
	v.Set("mode", string(mode))
	var res models.TrendResult
	err := c.get(ctx, "/api/v1/exercises/"+url.PathEscape(exercise)+"/trend", v, &res)
	return res, err
}

func (c *HTTPClient) Trends(ctx context.Context, _ int, mode trend.Mode) (map[string]models.TrendResult, error) {
	v := url.Values{}
	v.Set("mode", string(mode))
	var res map[string]models.TrendResult
	err := c.get(ctx, "/api/v1/trends", v, &res)
	return res, err
}

func (c *HTTPClient) MuscleGroups(ctx context.Context) (map[string][]string, error) {
	var groups map[string][]string
	err := c.get(ctx, "/api/v1/muscles", nil, &groups)
	return groups, err
}
