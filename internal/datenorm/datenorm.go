// Package datenorm turns the free-text dates produced by the extraction
// service into ISO dates and weekly recurrence day codes.
//
// The rules are deliberately narrow heuristics: a handful of lead-in words,
// ordinal suffixes, two range shapes and a list of known layouts.
package datenorm

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const isoDate = "2006-01-02"

var (
	leadIn   = regexp.MustCompile(`(?i)^\s*(?:starting|from|on|beginning|begins|begin)\s+`)
	ordinal  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)
	isoRange = regexp.MustCompile(`(?i)\b(\d{4}-\d{1,2}-\d{1,2})\s*(?:to|–|-)\s*(\d{4}-\d{1,2}-\d{1,2})\b`)
	dayRange = regexp.MustCompile(`(?i)\b(\d{1,2}\s+\w+)\s*(?:to|–|-)\s*(\d{1,2}\s+\w+)`)
	weekday  = regexp.MustCompile(`monday|tuesday|wednesday|thursday|friday|saturday|sunday`)
)

var dayCodes = map[string]string{
	"sunday":    "SU",
	"monday":    "MO",
	"tuesday":   "TU",
	"wednesday": "WE",
	"thursday":  "TH",
	"friday":    "FR",
	"saturday":  "SA",
}

// Layouts tried before falling back to dateparse. Month and weekday names
// match case-insensitively.
var layouts = []string{
	"2006-1-2",
	"2 January 2006",
	"2 Jan 2006",
	"2 January, 2006",
	"2. January 2006",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"Monday 2 January 2006",
	"Monday, 2 January 2006",
	"Monday, January 2, 2006",
	"Mon 2 Jan 2006",
	"Mon, 2 Jan 2006",
	"2.1.2006",
	"2006/1/2",
}

// MatchISORange reports whether text contains "YYYY-M-D to YYYY-M-D"
// (separator "to", "–" or "-") and returns both ends as written.
func MatchISORange(text string) (start, end string, ok bool) {
	m := isoRange.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// NormalizeDateRange reduces a date expression to a single start date.
//
// After dropping a lead-in word and ordinal suffixes it returns, in order:
// the start of an ISO range, the start phrase of a "D Month to D Month"
// range, the parsed date as YYYY-MM-DD, or the cleaned text.
func NormalizeDateRange(text string) string {
	if text == "" {
		return text
	}
	s := leadIn.ReplaceAllString(text, "")
	s = ordinal.ReplaceAllString(s, "${1}")

	if start, _, ok := MatchISORange(s); ok {
		return start
	}
	if m := dayRange.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if t, ok := ParseDate(s); ok {
		return t.Format(isoDate)
	}
	return strings.TrimSpace(s)
}

// ParseDate parses a single calendar date. Years outside 1900..2999 are
// rejected so that year-less phrases do not turn into year 0.
func ParseDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, plausibleYear(t)
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, plausibleYear(t)
}

func plausibleYear(t time.Time) bool {
	return t.Year() >= 1900 && t.Year() < 3000
}

// DetectRecurrence returns the two-letter code of every weekday name in text,
// in order of appearance and including repeats, or nil when there is none.
func DetectRecurrence(text string) []string {
	names := weekday.FindAllString(strings.ToLower(text), -1)
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, dayCodes[n])
	}
	return out
}

// FormatDisplay renders a date as DD.MM.YYYY for the event list, trying the
// normalized form first and then the raw text. Unparseable input is returned
// unchanged.
func FormatDisplay(text string) string {
	if text == "" {
		return ""
	}
	candidates := []string{NormalizeDateRange(text)}
	if candidates[0] != text {
		candidates = append(candidates, text)
	}
	for _, c := range candidates {
		if t, ok := ParseDate(c); ok {
			return t.Format("02.01.2006")
		}
	}
	return text
}
