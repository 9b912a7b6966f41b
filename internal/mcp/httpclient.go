package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/planner"
	"github.com/meltforce/aceperf/internal/progress"
	"github.com/meltforce/aceperf/internal/storage"
)

// HTTPClient implements DataSource by calling the AcePerf REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
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

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func dayParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(models.DateLayout))
	v.Set("end", end.Format(models.DateLayout))
	return v
}

func (c *HTTPClient) Today(ctx context.Context, day time.Time) (*planner.TodayView, error) {
	var view planner.TodayView
	params := url.Values{"date": {day.Format(models.DateLayout)}}
	if err := c.get(ctx, "/api/v1/today", params, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) Month(ctx context.Context, day time.Time) (*planner.MonthView, error) {
	var view planner.MonthView
	params := url.Values{"month": {day.Format(planner.MonthLayout)}}
	if err := c.get(ctx, "/api/v1/schedule", params, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) ListRoutines(ctx context.Context, category models.Category) ([]models.Routine, error) {
	params := url.Values{}
	if category != "" {
		params.Set("type", string(category))
	}
	var routines []models.Routine
	if err := c.get(ctx, "/api/v1/routines", params, &routines); err != nil {
		return nil, err
	}
	return routines, nil
}

func (c *HTTPClient) GetRoutine(ctx context.Context, name string) (*models.Routine, error) {
	var routine models.Routine
	if err := c.get(ctx, "/api/v1/routines/"+url.PathEscape(name), nil, &routine); err != nil {
		return nil, err
	}
	return &routine, nil
}

func (c *HTTPClient) QueryWorkoutLog(ctx context.Context, start, end time.Time) ([]models.WorkoutLogEntry, error) {
	var entries []models.WorkoutLogEntry
	if err := c.get(ctx, "/api/v1/log", dayParams(start, end), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) ProgressSummary(ctx context.Context) (*progress.SummaryView, error) {
	var sum progress.SummaryView
	if err := c.get(ctx, "/api/v1/progress/summary", nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (c *HTTPClient) ProgressSeries(ctx context.Context, kind models.MeasurementKind, start, end time.Time, exercise string) ([]progress.Point, error) {
	params := dayParams(start, end)
	if exercise != "" {
		params.Set("exercise", exercise)
	}
	var points []progress.Point
	if err := c.get(ctx, "/api/v1/progress/"+string(kind), params, &points); err != nil {
		return nil, err
	}
	return points, nil
}
