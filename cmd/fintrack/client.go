package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aristath/fintrack/internal/refresh"
)

// serverClient triggers refreshes on a running fintrack server, so they share
// its single-flight runs and provider throttles.
type serverClient struct {
	baseURL string
	http    *http.Client
}

func newServerClient(baseURL string) *serverClient {
	return &serverClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No timeout: a prices run is paced by the provider throttles.
		http: &http.Client{},
	}
}

// Refresh runs kind on the server and waits for its report.
func (c *serverClient) Refresh(ctx context.Context, kind refresh.Kind) (refresh.RunReport, error) {
	endpoint := c.baseURL + "/api/refresh/" + url.PathEscape(string(kind)) + "?wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return refresh.RunReport{}, fmt.Errorf("failed to build refresh request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return refresh.RunReport{}, fmt.Errorf("fintrack server unreachable at %s (use --local when it is not running): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &body) != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(raw))
		}
		return refresh.RunReport{}, fmt.Errorf("server refused %s refresh (%d): %s", kind, resp.StatusCode, body.Error)
	}

	var report refresh.RunReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return refresh.RunReport{}, fmt.Errorf("failed to decode run report: %w", err)
	}
	return report, nil
}
