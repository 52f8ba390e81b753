package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"schoolcal/internal/calendar"
	appLog "schoolcal/internal/log"
	"schoolcal/internal/model"
)

const (
	defaultMaxOccurrences = 500
)

// ExpandConfig controls how a body is expanded for preview.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps a single weekly series. If zero,
	// defaultMaxOccurrences is used.
	MaxOccurrences int
}

// Expand lists the occurrences of a calendar body inside the configured
// window. Weekly bodies go through rrule-go; all-day ranges and single
// events yield at most one occurrence. The bool reports truncation.
func Expand(b calendar.Body, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, false, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	start, end, allDay, err := bodyTimes(b)
	if err != nil {
		return nil, false, err
	}

	if len(b.Recurrence) == 0 {
		if !timeRangesOverlap(start, end, cfg.RangeStart, cfg.RangeEnd) {
			return []model.Occurrence{}, false, nil
		}
		return []model.Occurrence{{Summary: b.Summary, AllDay: allDay, Start: start, End: end}}, false, nil
	}

	return expandRecurring(b, start, end, cfg)
}

func expandRecurring(b calendar.Body, start, end time.Time, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	out := make([]model.Occurrence, 0)
	hitCap := false

	var set rrule.Set
	for _, line := range b.Recurrence {
		r, err := rrule.StrToRRule(strings.TrimPrefix(line, "RRULE:"))
		if err != nil {
			appLog.Error("expand: failed to parse RRULE", err, "summary", b.Summary, "rrule", line)
			return nil, false, err
		}
		// The series starts at the body's start, not at "now".
		r.DTStart(start)
		set.RRule(r)
	}

	rangeStart := cfg.RangeStart.In(start.Location())
	rangeEnd := cfg.RangeEnd.In(start.Location())
	occTimes := set.Between(rangeStart, rangeEnd, true)

	if len(occTimes) > cfg.MaxOccurrences {
		occTimes = occTimes[:cfg.MaxOccurrences]
		hitCap = true
	}

	// Preserve original duration.
	dur := end.Sub(start)
	for _, occStart := range occTimes {
		out = append(out, model.Occurrence{
			Summary: b.Summary,
			Start:   occStart,
			End:     occStart.Add(dur),
		})
	}
	return out, hitCap, nil
}

// bodyTimes resolves the start/end of a body in the body's timezone when it
// is loadable, else UTC.
func bodyTimes(b calendar.Body) (time.Time, time.Time, bool, error) {
	loc := time.UTC
	if b.Start.TimeZone != "" {
		if l, err := time.LoadLocation(b.Start.TimeZone); err == nil {
			loc = l
		}
	}

	if b.Start.Date != "" {
		s, err := time.ParseInLocation("2006-01-02", b.Start.Date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("expand: start date: %w", err)
		}
		e, err := time.ParseInLocation("2006-01-02", b.End.Date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("expand: end date: %w", err)
		}
		return s, e, true, nil
	}

	s, err := time.Parse(time.RFC3339, b.Start.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("expand: start: %w", err)
	}
	e, err := time.Parse(time.RFC3339, b.End.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("expand: end: %w", err)
	}
	// Weekly series follow wall-clock time across DST changes.
	return s.In(loc), e.In(loc), false, nil
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
