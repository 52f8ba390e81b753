package model

import "time"

// EventRecord is a single event as returned by the extraction service.
// Fields are free text; StartTime/EndTime are "HH:MM" when present.
type EventRecord struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`

	// Raw is the source excerpt the event was extracted from, used by the
	// client to highlight it in the page.
	Raw string `json:"raw,omitempty"`
}

// HighlightText returns the snippet a client should search for in the page:
// Raw, else Description, else Title, capped at 80 runes.
func (e EventRecord) HighlightText() string {
	s := e.Raw
	if s == "" {
		s = e.Description
	}
	if s == "" {
		s = e.Title
	}
	r := []rune(s)
	if len(r) > 80 {
		r = r[:80]
	}
	return string(r)
}

// Extraction is the text a document produced together with the events
// extracted from it. It is the unit stored in the extraction cache.
type Extraction struct {
	Text   string        `json:"text"`
	Events []EventRecord `json:"events"`
}

// Occurrence is one concrete instance of a calendar event body after
// recurrence expansion, used for previews.
type Occurrence struct {
	Summary string    `json:"summary"`
	AllDay  bool      `json:"all_day"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}
