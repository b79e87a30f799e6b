package ics

import (
	"errors"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// ErrNotCalendar is returned when the input has no VCALENDAR envelope.
// It is the only fatal decode condition; anything wrong inside an
// otherwise-valid document degrades to skipped events.
var ErrNotCalendar = errors.New("not an iCalendar document: missing VCALENDAR envelope")

const (
	beginEvent = "BEGIN:" + ical.CompEvent
	endEvent   = "END:" + ical.CompEvent
)

// Parse scans an iCalendar document and returns its events. Events missing
// a title or a start date are silently dropped. Folded continuation lines
// and property parameters are handled per RFC 5545.
func Parse(text string) ([]Event, error) {
	if !strings.Contains(text, "BEGIN:"+ical.CompCalendar) ||
		!strings.Contains(text, "END:"+ical.CompCalendar) {
		return nil, ErrNotCalendar
	}

	var events []Event
	var cur Event
	inEvent := false
	hasStart := false

	for _, line := range unfold(text) {
		switch {
		case line == beginEvent:
			cur = Event{}
			inEvent = true
			hasStart = false

		case line == endEvent:
			if inEvent && cur.Title != "" && hasStart {
				if cur.End.IsZero() {
					cur.End = defaultEnd(cur)
				}
				events = append(events, cur)
			}
			inEvent = false

		case inEvent:
			name, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			// Strip property parameters (";VALUE=DATE" and friends)
			// before matching the name.
			name, _, _ = strings.Cut(name, ";")
			name = strings.ToUpper(strings.TrimSpace(name))

			switch name {
			case ical.PropSummary:
				cur.Title = unescapeText(value)
			case ical.PropDescription:
				cur.Description = unescapeText(value)
			case ical.PropLocation:
				cur.Location = unescapeText(value)
			case ical.PropUID:
				cur.UID = strings.TrimSpace(value)
			case ical.PropStatus:
				cur.Status = strings.TrimSpace(value)
			case ical.PropRecurrenceRule:
				cur.RecurrenceRule = strings.TrimSpace(value)
			case ical.PropDateTimeStart:
				cur.Start, cur.AllDay = parseDateToken(value)
				hasStart = true
			case ical.PropDateTimeEnd:
				cur.End, _ = parseDateToken(value)
			}
		}
	}

	return events, nil
}

// unfold splits the document into logical lines, concatenating folded
// continuation lines (those starting with a space or tab) onto their
// predecessor.
func unfold(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var lines []string
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// parseDateToken interprets a DTSTART/DTEND value positionally: 8
// characters is a bare date (all-day, midnight local), 15 or more is a
// date-time, optionally UTC-suffixed. Anything else falls back to "now" so
// one bad timestamp cannot invalidate the batch.
func parseDateToken(token string) (t time.Time, allDay bool) {
	token = strings.TrimSpace(token)

	switch {
	case len(token) == 8:
		parsed, err := time.ParseInLocation("20060102", token, time.Local)
		if err != nil {
			return timeNow(), false
		}
		return parsed, true

	case len(token) >= 15:
		loc := time.Local
		if strings.HasSuffix(token, "Z") {
			loc = time.UTC
			token = strings.TrimSuffix(token, "Z")
		}
		parsed, err := time.ParseInLocation("20060102T150405", token[:15], loc)
		if err != nil {
			return timeNow(), false
		}
		return parsed, false

	default:
		return timeNow(), false
	}
}

// defaultEnd supplies a DTEND when the document omits one: a full day for
// all-day events, one appointment slot otherwise.
func defaultEnd(ev Event) time.Time {
	if ev.AllDay {
		return ev.Start.AddDate(0, 0, 1)
	}
	return ev.Start.Add(time.Hour)
}

// unescapeText reverses RFC 5545 TEXT escaping.
func unescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
