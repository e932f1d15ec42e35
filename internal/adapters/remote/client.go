package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/strideapp/stride-engine/internal/core/domain"
)

var _ domain.RemoteStore = (*Client)(nil)

// Client talks to the remote step service. The remote is authoritative for
// cross-device history; this engine only ever upserts — it never deletes and
// never feeds remote data back into session state.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type upsertStepsRequest struct {
	Date      string `json:"date"`
	StepCount int    `json:"stepCount"`
}

// UpsertSteps pushes one day's count. Idempotent per date on the server side:
// repeated calls overwrite, never accumulate.
func (c *Client) UpsertSteps(ctx context.Context, date string, stepCount int) error {
	body, err := json.Marshal(upsertStepsRequest{Date: date, StepCount: stepCount})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/v1/steps", bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upsert steps for %s: %w", date, err)
	}
	defer drain(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("upsert steps for %s: unexpected status %d", date, resp.StatusCode)
	}
	return nil
}

// StatsSummary is the aggregate view served by the remote range endpoint.
// Presentation code renders it directly; it never flows into StepsState.
type StatsSummary struct {
	From         string `json:"from"`
	To           string `json:"to"`
	TotalSteps   int    `json:"totalSteps"`
	DaysTracked  int    `json:"daysTracked"`
	DaysGoalMet  int    `json:"daysGoalMet"`
	DailyAverage int    `json:"dailyAverage"`
}

func (c *Client) RangeStats(ctx context.Context, from, to string) (*StatsSummary, error) {
	endpoint := fmt.Sprintf("%s/api/v1/steps/stats?from=%s&to=%s",
		c.baseURL, url.QueryEscape(from), url.QueryEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("range stats %s..%s: %w", from, to, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("range stats %s..%s: unexpected status %d", from, to, resp.StatusCode)
	}

	var summary StatsSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("range stats %s..%s: decode: %w", from, to, err)
	}
	return &summary, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
