// Package calendar maps extracted events onto Google Calendar event bodies
// and submits them.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/teambition/rrule-go"

	"schoolcal/internal/datenorm"
	"schoolcal/internal/model"
)

var (
	ErrInvalidDate = errors.New("invalid start date")
	ErrInvalidTime = errors.New("invalid time of day")
)

const (
	defaultStart   = "09:00"
	defaultEnd     = "10:00"
	untilLayout    = "20060102T150405Z"
	dateLayout     = "2006-01-02"
	looseDate      = "2006-1-2"
	defaultSummary = "Event"
)

// Kind tells which of the three body shapes was produced.
type Kind string

const (
	KindAllDayRange Kind = "all_day_range"
	KindWeekly      Kind = "weekly"
	KindSingle      Kind = "single"
)

// EventTime is either an all-day Date or a timed DateTime (RFC 3339).
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Body is the request body for an events.insert call.
type Body struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Recurrence  []string  `json:"recurrence,omitempty"`

	Kind Kind `json:"-"`
}

// Mapper builds bodies in a fixed display timezone. The clock decides what
// "today" is for weekly events.
type Mapper struct {
	loc   *time.Location
	clock clockwork.Clock
}

func NewMapper(loc *time.Location, clock clockwork.Clock) *Mapper {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Mapper{loc: loc, clock: clock}
}

// Location is the timezone bodies are expressed in.
func (m *Mapper) Location() *time.Location { return m.loc }

// BuildBody maps ev by looking at the untouched ev.Date, in this order:
//
//  1. "YYYY-M-D to YYYY-M-D"  -> all-day range
//  2. weekday names           -> weekly series anchored on the first weekday
//  3. anything else           -> single timed event
//
// The order matters: "Monday 2025-10-20 to 2025-10-24" is a range, not a
// weekly event.
func (m *Mapper) BuildBody(ev model.EventRecord) (Body, error) {
	b := Body{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
	}
	if strings.TrimSpace(b.Summary) == "" {
		b.Summary = defaultSummary
	}

	if start, end, ok := datenorm.MatchISORange(ev.Date); ok {
		b.Kind = KindAllDayRange
		b.Start = EventTime{Date: canonicalDate(start), TimeZone: m.loc.String()}
		b.End = EventTime{Date: canonicalDate(end), TimeZone: m.loc.String()}
		return b, nil
	}

	if days := datenorm.DetectRecurrence(ev.Date); days != nil {
		return m.weekly(b, ev, days)
	}

	return m.single(b, ev)
}

func (m *Mapper) weekly(b Body, ev model.EventRecord, days []string) (Body, error) {
	sh, sm, err := parseClock(ev.StartTime, defaultStart)
	if err != nil {
		return Body{}, err
	}
	eh, em, err := parseClock(ev.EndTime, defaultEnd)
	if err != nil {
		return Body{}, err
	}

	// Anchor on the first weekday mentioned; the rule still lists every day.
	day := nextWeekday(m.clock.Now().In(m.loc), days[0])
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, m.loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, m.loc)
	until := start.AddDate(1, 0, 0).UTC().Format(untilLayout)

	rule := "FREQ=WEEKLY;BYDAY=" + strings.Join(days, ",") + ";UNTIL=" + until
	if _, err := rrule.StrToRRule(rule); err != nil {
		return Body{}, fmt.Errorf("calendar: generated rule %q: %w", rule, err)
	}

	b.Kind = KindWeekly
	b.Start = EventTime{DateTime: start.Format(time.RFC3339), TimeZone: m.loc.String()}
	b.End = EventTime{DateTime: end.Format(time.RFC3339), TimeZone: m.loc.String()}
	b.Recurrence = []string{"RRULE:" + rule}
	return b, nil
}

func (m *Mapper) single(b Body, ev model.EventRecord) (Body, error) {
	date := datenorm.NormalizeDateRange(ev.Date)
	day, err := time.ParseInLocation(looseDate, date, m.loc)
	if err != nil {
		return Body{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	sh, sm, err := parseClock(ev.StartTime, defaultStart)
	if err != nil {
		return Body{}, fmt.Errorf("%w: %q %q", ErrInvalidDate, date, ev.StartTime)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, m.loc)

	end := start.Add(time.Hour)
	if ev.EndTime != "" {
		eh, em, err := parseClock(ev.EndTime, "")
		if err != nil {
			return Body{}, err
		}
		end = time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, m.loc)
	}

	b.Kind = KindSingle
	b.Start = EventTime{DateTime: start.Format(time.RFC3339), TimeZone: m.loc.String()}
	b.End = EventTime{DateTime: end.Format(time.RFC3339), TimeZone: m.loc.String()}
	return b, nil
}

var weekdays = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

// nextWeekday returns the first date on or after now falling on code.
func nextWeekday(now time.Time, code string) time.Time {
	diff := (int(weekdays[code]) - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, diff)
}

// parseClock reads "H", "HH:MM" or "H:MM". An empty string uses def.
func parseClock(s, def string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = def
	}
	hs, ms, hasMin := strings.Cut(s, ":")
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if !hasMin || strings.TrimSpace(ms) == "" {
		return h, 0, nil
	}
	mi, err := strconv.Atoi(strings.TrimSpace(ms))
	if err != nil || mi < 0 || mi > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return h, mi, nil
}

// canonicalDate zero-pads a valid loose ISO date; anything else is kept.
func canonicalDate(s string) string {
	t, err := time.Parse(looseDate, s)
	if err != nil {
		return s
	}
	return t.Format(dateLayout)
}
