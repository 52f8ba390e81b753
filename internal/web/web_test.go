package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolcal/internal/cache"
	"schoolcal/internal/calendar"
	"schoolcal/internal/config"
	appLog "schoolcal/internal/log"
	"schoolcal/internal/model"
	"schoolcal/internal/orchestrator"
)

type fakeScanner struct {
	res   orchestrator.Result
	err   error
	force bool
}

func (f *fakeScanner) Scan(_ context.Context, _ string, forceFresh bool) (orchestrator.Result, error) {
	f.force = forceFresh
	return f.res, f.err
}

type fakeExtractor struct {
	events []model.EventRecord
	err    error
	got    string
}

func (f *fakeExtractor) Extract(_ context.Context, text string) ([]model.EventRecord, error) {
	f.got = text
	return f.events, f.err
}

type fixture struct {
	srv     *Server
	cfg     *config.Config
	scanner *fakeScanner
	store   *cache.Store
	inserts atomic.Int32
	auth    atomic.Value
}

func newFixture(t *testing.T, extractor Extractor) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	// Wednesday
	clk := clockwork.NewFakeClockAt(time.Date(2025, 10, 15, 8, 0, 0, 0, loc))

	f := &fixture{scanner: &fakeScanner{}, store: cache.New(cache.WithClock(clk))}

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := f.inserts.Add(1)
		f.auth.Store(r.Header.Get("Authorization"))
		var b calendar.Body
		_ = json.NewDecoder(r.Body).Decode(&b)
		if b.Summary == "reject" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"e` + string(rune('0'+n)) + `","htmlLink":"https://calendar.example/e"}`))
	}))
	t.Cleanup(api.Close)

	f.cfg = config.DefaultConfig()
	f.srv = NewServer(f.cfg, Deps{
		Scanner:   f.scanner,
		Cache:     f.store,
		Mapper:    calendar.NewMapper(loc, clk),
		Calendar:  calendar.NewClient(api.URL, "primary"),
		Extractor: extractor,
		Clock:     clk,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCacheProtocol(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/cache", `{"action":"cache:get","fingerprint":"fp"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entry":null}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/cache",
		`{"action":"cache:set","fingerprint":"fp","payload":{"text":"t","events":[{"title":"A","date":"2025-10-20"}]}}`, nil)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/cache", `{"action":"cache:get","fingerprint":"fp"}`, nil)
	assert.JSONEq(t, `{"entry":{"text":"t","events":[{"title":"A","date":"2025-10-20"}]}}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/cache", `{"action":"cache:nope","fingerprint":"fp"}`, nil)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = f.do(t, http.MethodPost, "/api/cache", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScan(t *testing.T) {
	f := newFixture(t, nil)
	f.scanner.res = orchestrator.Result{
		Fingerprint: "https://engage.lis.school/p|portal|abc",
		Variant:     "portal",
		Events:      []model.EventRecord{{Title: "Trip", Date: "2025-10-22"}},
		FromCache:   true,
	}

	rec := f.do(t, http.MethodPost, "/api/scan", `{"url":"https://engage.lis.school/p","force":true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "portal", out["variant"])
	assert.Equal(t, true, out["from_cache"])
	assert.True(t, f.scanner.force)

	rec = f.do(t, http.MethodPost, "/api/scan", `{"url":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.scanner.err = orchestrator.ErrUnsupportedHost
	rec = f.do(t, http.MethodPost, "/api/scan", `{"url":"https://example.com/x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.scanner.err = errors.New("dial tcp: refused")
	rec = f.do(t, http.MethodPost, "/api/scan", `{"url":"https://engage.lis.school/p"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestScan_ErrorLogRedactsURL(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetOutput(&buf, "json")
	t.Cleanup(func() { appLog.SetOutput(os.Stderr, "console") })

	f := newFixture(t, nil)
	f.scanner.err = errors.New("dial tcp: refused")
	rec := f.do(t, http.MethodPost, "/api/scan", `{"url":"https://engage.lis.school/docs/x.pdf?token=s3cret"}`, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	assert.Contains(t, buf.String(), "api scan failed")
	assert.Contains(t, buf.String(), "https://engage.lis.school/...(redacted)")
	assert.NotContains(t, buf.String(), "s3cret")
}

func TestCalendarBody(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/calendar/body",
		`{"event":{"title":"Swim","date":"Every Monday","startTime":"14:00","endTime":"15:00","raw":"Swim every Monday"}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view eventView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, calendar.KindWeekly, view.Kind)
	assert.Equal(t, "2025-10-20T14:00:00+02:00", view.Body.Start.DateTime)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20261020T120000Z"}, view.Body.Recurrence)
	assert.Equal(t, "Swim every Monday", view.Highlight)

	rec = f.do(t, http.MethodPost, "/api/calendar/body", `{"event":{"date":"2025-10-22"}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "22.10.2025", view.DisplayDate)
	assert.Equal(t, "Event", view.Body.Summary)

	rec = f.do(t, http.MethodPost, "/api/calendar/body", `{"event":{"date":"someday"}}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCalendarEvents(t *testing.T) {
	f := newFixture(t, nil)
	body := `{"events":[
		{"title":"Trip","date":"2025-10-22"},
		{"title":"Broken","date":"whenever"},
		{"title":"reject","date":"2025-10-23"}
	]}`

	rec := f.do(t, http.MethodPost, "/api/calendar/events", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/calendar/events", body, map[string]string{"Authorization": "Bearer tok-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out addResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Added)
	assert.Equal(t, 2, out.Failed)
	require.Len(t, out.Results, 3)
	assert.Equal(t, "https://calendar.example/e", out.Results[0].Link)
	assert.NotEmpty(t, out.Results[1].Error)
	assert.Contains(t, out.Results[2].Error, "403")
	assert.EqualValues(t, 2, f.inserts.Load(), "unmappable event never reaches the API")
	assert.Equal(t, "Bearer tok-1", f.auth.Load())

	rec = f.do(t, http.MethodPost, "/api/calendar/events", `{"events":[]}`, map[string]string{"Authorization": "Bearer tok-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestICSExport(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/api/ics", `{"events":[
		{"title":"Break","date":"2025-10-20 to 2025-10-31"},
		{"title":"Swim","date":"Every Monday","startTime":"14:00"},
		{"title":"Broken","date":"whenever"}
	]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Skipped-Events"))

	ics := rec.Body.String()
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "RRULE:FREQ=WEEKLY;BYDAY=MO")

	rec = f.do(t, http.MethodPost, "/api/ics", `{"events":[{"date":"whenever"}]}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPreview(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/api/preview",
		`{"event":{"title":"Swim","date":"Every Monday","startTime":"14:00"},"days":30}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out previewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	// Mondays 20.10, 27.10, 03.11, 10.11
	require.Len(t, out.Occurrences, 4)
	assert.False(t, out.Truncated)
	assert.Equal(t, time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC), out.Occurrences[0].Start.UTC())

	rec = f.do(t, http.MethodPost, "/api/preview",
		`{"event":{"title":"Swim","date":"Every Monday"},"days":30,"max":2}`, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Occurrences, 2)
	assert.True(t, out.Truncated)

	rec = f.do(t, http.MethodPost, "/api/preview", `{"event":{"date":"2025-10-22"},"days":-1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseEvents(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/parse-events", `{"text":"x"}`, nil)
	assert.NotEqual(t, http.StatusOK, rec.Code, "route is only mounted with an extractor")

	ex := &fakeExtractor{events: []model.EventRecord{{Title: "Trip", Date: "2025-10-22"}}}
	f = newFixture(t, ex)

	rec = f.do(t, http.MethodPost, "/parse-events", `{"text":"School trip on 22 October"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"events":[{"title":"Trip","date":"2025-10-22"}]}`, rec.Body.String())
	assert.Equal(t, "School trip on 22 October", ex.got)

	rec = f.do(t, http.MethodPost, "/parse-events", `{"text":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ex.err = errors.New("model down")
	rec = f.do(t, http.MethodPost, "/parse-events", `{"text":"x"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to parse events", decode(t, rec)["error"])
}

func TestBasicAuth(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/cache", `{"action":"cache:clear","fingerprint":"fp"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/cache", bytes.NewBufferString(`{"action":"cache:clear","fingerprint":"fp"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("u", "p")
	rw := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodOptions, "/api/scan", "", map[string]string{
		"Origin":                        "chrome-extension://abcdef",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, "chrome-extension://abcdef", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCalendarToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, "", calendarToken(r))
	r.Header.Set("Authorization", "bearer abc ")
	assert.Equal(t, "abc", calendarToken(r))
	r.Header.Set("X-Calendar-Token", "xyz")
	assert.Equal(t, "xyz", calendarToken(r))
}
