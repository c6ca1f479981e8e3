package opportunity

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

const icalTimeFormat = "20060102T150405Z"

var icalEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// ICalendar renders opp as a single-event iCalendar file (RFC 5545), recurrence included.
// uid identifies the event in the attendee's calendar, stamp is the time the file is produced.
func ICalendar(opp Opportunity, uid string, stamp time.Time) []byte {
	var buf bytes.Buffer
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&buf, format+"\r\n", args...)
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//Bolingo//Volunteering//EN")
	line("METHOD:PUBLISH")
	line("BEGIN:VEVENT")
	line("UID:%s", uid)
	line("DTSTAMP:%s", stamp.UTC().Format(icalTimeFormat))
	line("DTSTART:%s", opp.StartDate.UTC().Format(icalTimeFormat))
	line("DTEND:%s", opp.EndDate.UTC().Format(icalTimeFormat))
	if opp.IsRecurring && opp.RecurrencePattern.Valid {
		line("RRULE:%s", strings.TrimPrefix(strings.TrimSpace(opp.RecurrencePattern.String), "RRULE:"))
	}
	line("SUMMARY:%s", icalEscaper.Replace(opp.Title))
	if opp.Location != "" {
		line("LOCATION:%s", icalEscaper.Replace(opp.Location))
	}
	if opp.Description != "" {
		line("DESCRIPTION:%s", icalEscaper.Replace(opp.Description))
	}
	line("END:VEVENT")
	line("END:VCALENDAR")
	return buf.Bytes()
}
