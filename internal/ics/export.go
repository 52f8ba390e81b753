package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"schoolcal/internal/calendar"
	appLog "schoolcal/internal/log"
)

const productID = "-//schoolcal//event export//EN"

// Export renders bodies as a VCALENDAR document that any calendar app can
// import. Each body becomes one VEVENT with a fresh UID; weekly bodies keep
// their RRULE. Bodies whose times cannot be read are skipped and logged.
func Export(bodies []calendar.Body, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for i, b := range bodies {
		start, end, allDay, err := bodyTimes(b)
		if err != nil {
			appLog.Error("ics export: skipping body", err, "index", i, "summary", b.Summary)
			continue
		}

		ev := cal.AddEvent(uuid.NewString() + "@schoolcal")
		ev.SetDtStampTime(now)
		ev.SetSummary(b.Summary)
		if b.Description != "" {
			ev.SetDescription(b.Description)
		}
		if b.Location != "" {
			ev.SetLocation(b.Location)
		}

		if allDay {
			ev.SetAllDayStartAt(start)
			ev.SetAllDayEndAt(end)
		} else {
			ev.SetStartAt(start)
			ev.SetEndAt(end)
		}

		for _, r := range b.Recurrence {
			ev.AddRrule(strings.TrimPrefix(r, "RRULE:"))
		}
	}

	return cal.Serialize()
}
