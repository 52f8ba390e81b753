package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	appLog "schoolcal/internal/log"
	"schoolcal/internal/model"
)

// DefaultBaseURL is the Google Calendar v3 API root.
const DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

// APIError is an error body returned by the calendar API.
type APIError struct {
	Status  int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar api: %d %s", e.Status, e.Message)
}

// Created is the part of the insert response we care about.
type Created struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// Client posts event bodies to one calendar.
type Client struct {
	baseURL    string
	calendarID string
	httpClient *http.Client
}

func NewClient(baseURL, calendarID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{
		baseURL:    baseURL,
		calendarID: calendarID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Insert creates one event using token as the bearer credential.
func (c *Client) Insert(ctx context.Context, token string, body Body) (Created, error) {
	if token == "" {
		return Created{}, errors.New("calendar: missing access token")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Created{}, err
	}

	endpoint := c.baseURL + "/calendars/" + url.PathEscape(c.calendarID) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Created{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	// oauth2 sets the Authorization header; the base client keeps our timeout.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))

	resp, err := hc.Do(req)
	if err != nil {
		return Created{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Created{}, err
	}

	var out struct {
		Created
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode >= 300 {
			return Created{}, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return Created{}, fmt.Errorf("calendar: decode response: %w", err)
	}
	if out.Error != nil {
		if out.Error.Status == 0 {
			out.Error.Status = resp.StatusCode
		}
		return Created{}, out.Error
	}
	if resp.StatusCode >= 300 {
		return Created{}, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return out.Created, nil
}

// Result is the outcome for one event of AddAll.
type Result struct {
	Index int
	Body  Body
	Link  string
	Err   error
}

// AddAll maps and inserts events one after another. A failure is recorded
// on that event's Result and the loop moves on.
func (c *Client) AddAll(ctx context.Context, token string, m *Mapper, events []model.EventRecord) []Result {
	results := make([]Result, 0, len(events))
	for i, ev := range events {
		r := Result{Index: i}
		body, err := m.BuildBody(ev)
		if err != nil {
			r.Err = err
			appLog.Error("calendar: map event failed", err, "index", i, "title", ev.Title, "date", ev.Date)
			results = append(results, r)
			continue
		}
		r.Body = body

		created, err := c.Insert(ctx, token, body)
		if err != nil {
			r.Err = err
			appLog.Error("calendar: insert failed", err, "index", i, "title", body.Summary)
		} else {
			r.Link = created.HTMLLink
			appLog.Info("calendar: event created", "index", i, "title", body.Summary, "kind", body.Kind)
		}
		results = append(results, r)
	}
	return results
}
