// Package ics converts between the product's calendar events and the
// iCalendar (RFC 5545) text format used for import/export and as the
// external contract for calendar data exchange.
//
// Decoding is deliberately tolerant: a malformed single VEVENT is skipped
// rather than aborting the whole import, and an unreadable timestamp falls
// back to the current time rather than invalidating the batch. Only a
// missing VCALENDAR envelope is fatal. Encoding goes through go-ical and
// always produces a valid document with CRLF line endings.
package ics

import "time"

// Event is the calendar event as the product understands it.
type Event struct {
	UID         string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Status      string
	// AllDay is set when the start was given as a bare date.
	AllDay bool
	// RecurrenceRule holds the raw RRULE value, if the event recurs.
	RecurrenceRule string
}

// timeNow is a seam for tests exercising the bad-timestamp fallback.
var timeNow = time.Now
