package sheets

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
	"time"
)

const maxDashboardBytes = 32 << 20

var ErrNotConfigured = errors.New("sheets: web app url is not configured")

// Client talks to the spreadsheet's web-app endpoint, which is both the log
// source and the submission sink.
type Client struct {
	http      *http.Client
	webAppURL string
	now       func() time.Time
}

func NewClient(hc *http.Client, webAppURL string) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{http: hc, webAppURL: webAppURL, now: time.Now}
}

// FetchDashboard reads the raw attendance, teaching and leave logs.
func (c *Client) FetchDashboard(ctx context.Context) (*Dashboard, error) {
	if c.webAppURL == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(c.webAppURL)
	if err != nil {
		return nil, fmt.Errorf("sheets: bad web app url: %w", err)
	}
	q := u.Query()
	q.Set("action", "GET_DASHBOARD_DATA")
	// cache buster; the web app sits behind Google's redirect cache
	q.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sheets: dashboard status %d", resp.StatusCode)
	}

	var d Dashboard
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDashboardBytes)).Decode(&d); err != nil {
		return nil, fmt.Errorf("sheets: decode dashboard: %w", err)
	}
	return &d, nil
}

// Submit posts one submission. The body is sent as text/plain so the web app
// accepts it without a preflight. A nil error means the endpoint accepted it.
func (c *Client) Submit(ctx context.Context, s Submission) error {
	if c.webAppURL == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webAppURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sheets: submission rejected with status %d", resp.StatusCode)
	}
	return nil
}
