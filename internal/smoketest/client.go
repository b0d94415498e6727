package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/okian/factboard/internal/domain/types"
)

// Client talks to a running leaderboard service.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Health returns the service health report.
func (c *Client) Health(ctx context.Context) (types.Health, error) {
	var h types.Health
	err := c.getJSON(ctx, "/api/health", &h)
	return h, err
}

// Leaderboard fetches the board sorted by sortKey.
func (c *Client) Leaderboard(ctx context.Context, sortKey string) ([]types.Entry, error) {
	var entries []types.Entry
	err := c.getJSON(ctx, "/api/leaderboard?sortBy="+url.QueryEscape(sortKey), &entries)
	return entries, err
}

// Upload posts one results file as multipart form data.
func (c *Client) Upload(ctx context.Context, s Submission) error {
	payload, err := json.Marshal(resultsFile{Model: s.Model, FullContext: s.FullContext, GoldEvidence: s.GoldEvidence})
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="results"; filename="results.json"`)
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("write part: %w", err)
	}
	if err := mw.WriteField("teamName", s.Team); err != nil {
		return fmt.Errorf("write team: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-results", &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
