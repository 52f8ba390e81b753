// Package extract talks to the language-model extraction service that turns
// document text into event records, and implements that service's model call.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	appLog "schoolcal/internal/log"
	"schoolcal/internal/model"
)

var (
	blankLines  = regexp.MustCompile(`\n\s*\n+`)
	pageMarkers = regexp.MustCompile(`--- Page \d+ ---`)
	spaceRuns   = regexp.MustCompile(`\s{2,}`)
)

// CleanText removes empty lines, PDF page markers and runs of whitespace.
func CleanText(text string) string {
	text = blankLines.ReplaceAllString(text, "\n")
	text = pageMarkers.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	return text
}

// Request and Response are the wire shapes of POST /parse-events.
type Request struct {
	Text string `json:"text" validate:"required"`
}

type Response struct {
	Events []model.EventRecord `json:"events"`
	Error  string              `json:"error,omitempty"`
}

// Client calls a remote extraction service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient targets endpoint, e.g. "http://127.0.0.1:3000/parse-events".
// Model calls are slow, so the default timeout is generous.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Extract posts text and returns the events. A service-side error body is
// returned as an error; callers decide whether that means "no events".
func (c *Client) Extract(ctx context.Context, text string) ([]model.EventRecord, error) {
	if c.endpoint == "" {
		return nil, errors.New("extract: endpoint not configured")
	}
	payload, err := json.Marshal(Request{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("extract: %s: decode: %w", resp.Status, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("extract: service error: %s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extract: %s", resp.Status)
	}

	appLog.Info("extraction done", "events", len(out.Events), "chars", len(text), "elapsed", time.Since(start).String())
	return normalizeEvents(out.Events), nil
}

// normalizeEvents trims whitespace the model likes to leave around values.
func normalizeEvents(events []model.EventRecord) []model.EventRecord {
	out := make([]model.EventRecord, 0, len(events))
	for _, ev := range events {
		ev.Title = strings.TrimSpace(ev.Title)
		ev.Date = strings.TrimSpace(ev.Date)
		ev.StartTime = strings.TrimSpace(ev.StartTime)
		ev.EndTime = strings.TrimSpace(ev.EndTime)
		ev.Location = strings.TrimSpace(ev.Location)
		ev.Description = strings.TrimSpace(ev.Description)
		out = append(out, ev)
	}
	return out
}
