package importer

import (
	"bytes"
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

	"github.com/meltforce/aceperf/internal/ingest"
)

// Client sends sheets to a running AcePerf server's import endpoint.
type Client struct {
	serverURL  string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the AcePerf server.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// errPermanent marks a response that retrying cannot fix.
var errPermanent = errors.New("rejected by server")

// Ingest POSTs the sheet to /api/v1/import/routines. Network failures and 5xx
// responses are retried up to 3 times with exponential backoff.
func (c *Client) Ingest(ctx context.Context, r io.Reader, dryRun bool) (*ingest.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	endpoint := c.serverURL + "/api/v1/import/routines?" + url.Values{
		"dry_run": {strconv.FormatBool(dryRun)},
	}.Encode()

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		result, err := c.send(ctx, endpoint, data)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, errPermanent) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) send(ctx context.Context, endpoint string, data []byte) (*ingest.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errPermanent, err)
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("import failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: %w", errPermanent, err)
		}
		return nil, err
	}

	var result ingest.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding import result: %w", err)
	}
	return &result, nil
}
