package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"schoolcal/internal/cache"
	"schoolcal/internal/calendar"
	"schoolcal/internal/datenorm"
	"schoolcal/internal/extract"
	"schoolcal/internal/ics"
	appLog "schoolcal/internal/log"
	"schoolcal/internal/model"
	"schoolcal/internal/orchestrator"
	"schoolcal/internal/source"
)

// handleCache applies one cache protocol message. Rejected messages are
// still answered with 200 and {"success": false}, as the protocol expects.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	var req cache.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Cache.Handle(req))
}

type scanRequest struct {
	URL   string `json:"url" validate:"required,url"`
	Force bool   `json:"force"`
}

// POST /api/scan {"url": "...", "force": false}
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	res, err := s.deps.Scanner.Scan(r.Context(), req.URL, req.Force)
	switch {
	case errors.Is(err, orchestrator.ErrUnsupportedHost):
		writeError(w, http.StatusBadRequest, "unsupported host")
		return
	case err != nil:
		appLog.Error("api scan failed", err, "url", source.RedactURL(req.URL))
		writeError(w, http.StatusBadGateway, "failed to read document")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type eventRequest struct {
	Event model.EventRecord `json:"event"`
}

// eventView is an event as the popup lists it: the mapped body plus the
// display date and the text to highlight in the page.
type eventView struct {
	Body        calendar.Body `json:"body"`
	Kind        calendar.Kind `json:"kind"`
	DisplayDate string        `json:"display_date"`
	Highlight   string        `json:"highlight"`
}

// POST /api/calendar/body {"event": {...}}
func (s *Server) handleCalendarBody(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body, err := s.deps.Mapper.BuildBody(req.Event)
	if err != nil {
		writeMapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventView{
		Body:        body,
		Kind:        body.Kind,
		DisplayDate: datenorm.FormatDisplay(req.Event.Date),
		Highlight:   req.Event.HighlightText(),
	})
}

func writeMapError(w http.ResponseWriter, err error) {
	if errors.Is(err, calendar.ErrInvalidDate) || errors.Is(err, calendar.ErrInvalidTime) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

type eventsRequest struct {
	Events []model.EventRecord `json:"events" validate:"required,min=1"`
}

type addResult struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
	Error string `json:"error,omitempty"`
}

type addResponse struct {
	Added   int         `json:"added"`
	Failed  int         `json:"failed"`
	Results []addResult `json:"results"`
}

// POST /api/calendar/events {"events": [...]} with "Authorization: Bearer <token>".
//
// The token belongs to the end user's calendar. When basic auth is enabled
// the same header is taken by it, so X-Calendar-Token is accepted too.
func (s *Server) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	token := calendarToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing calendar access token")
		return
	}

	var req eventsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "events are required")
		return
	}

	results := s.deps.Calendar.AddAll(r.Context(), token, s.deps.Mapper, req.Events)
	resp := addResponse{Results: make([]addResult, 0, len(results))}
	for _, res := range results {
		ar := addResult{Index: res.Index, Title: req.Events[res.Index].Title, Link: res.Link}
		if res.Err != nil {
			ar.Error = res.Err.Error()
			resp.Failed++
		} else {
			resp.Added++
		}
		resp.Results = append(resp.Results, ar)
	}
	appLog.Info("api calendar events", "added", resp.Added, "failed", resp.Failed)
	writeJSON(w, http.StatusOK, resp)
}

func calendarToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get("X-Calendar-Token")); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// POST /api/ics {"events": [...]} -> text/calendar.
// Events that cannot be mapped are skipped and counted in X-Skipped-Events.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "events are required")
		return
	}

	bodies := make([]calendar.Body, 0, len(req.Events))
	skipped := 0
	for _, ev := range req.Events {
		b, err := s.deps.Mapper.BuildBody(ev)
		if err != nil {
			skipped++
			appLog.Debug("ics export: skipping event", "title", ev.Title, "date", ev.Date, "error", err.Error())
			continue
		}
		bodies = append(bodies, b)
	}
	if len(bodies) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no event could be mapped")
		return
	}

	out := ics.Export(bodies, s.deps.Clock.Now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	if skipped > 0 {
		w.Header().Set("X-Skipped-Events", strconv.Itoa(skipped))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

type previewRequest struct {
	Event model.EventRecord `json:"event"`
	// Days is the preview window from today; defaults to 30.
	Days int `json:"days" validate:"gte=0,lte=366"`
	Max  int `json:"max" validate:"gte=0"`
}

type previewResponse struct {
	Occurrences []model.Occurrence `json:"occurrences"`
	Truncated   bool               `json:"truncated"`
	RangeStart  time.Time          `json:"range_start"`
	RangeEnd    time.Time          `json:"range_end"`
}

// POST /api/preview {"event": {...}, "days": 30}
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid preview request")
		return
	}
	if req.Days == 0 {
		req.Days = 30
	}

	body, err := s.deps.Mapper.BuildBody(req.Event)
	if err != nil {
		writeMapError(w, err)
		return
	}

	now := s.deps.Clock.Now().In(s.deps.Mapper.Location())
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, req.Days)

	occ, truncated, err := ics.Expand(body, ics.ExpandConfig{
		RangeStart:     start,
		RangeEnd:       end,
		MaxOccurrences: req.Max,
	})
	if err != nil {
		appLog.Error("api preview: expand failed", err, "title", req.Event.Title)
		writeError(w, http.StatusInternalServerError, "failed to expand event")
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{
		Occurrences: occ,
		Truncated:   truncated,
		RangeStart:  start,
		RangeEnd:    end,
	})
}

// POST /parse-events {"text": "..."} -> {"events": [...]}.
// This is the extraction service contract the scan client speaks.
func (s *Server) handleParseEvents(w http.ResponseWriter, r *http.Request) {
	var req extract.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, extract.Response{Error: "text is required"})
		return
	}

	events, err := s.deps.Extractor.Extract(r.Context(), req.Text)
	if err != nil {
		appLog.Error("parse-events failed", err, "text_len", len(req.Text))
		writeJSON(w, http.StatusInternalServerError, extract.Response{Error: "failed to parse events"})
		return
	}
	if events == nil {
		events = []model.EventRecord{}
	}
	writeJSON(w, http.StatusOK, extract.Response{Events: events})
}
