package ics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const prodID = "-//liboffsync//agenda sync 1.0//EN"

const (
	// StatusConfirmed is the default STATUS written for events that
	// don't carry one.
	StatusConfirmed = "CONFIRMED"

	dateFormat = "20060102"
)

// Serialize emits a VCALENDAR document for the given events, one VEVENT
// per event, CRLF-terminated per the iCalendar convention.
//
// UIDs are stable: an event's own UID is reused (a fresh one is assigned
// only when the event has none), so repeated exports of the same event
// produce the same UID.
func Serialize(events []Event) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	now := timeNow().UTC()
	for _, ev := range events {
		vevent, err := encodeEvent(ev, now)
		if err != nil {
			return "", err
		}
		cal.Children = append(cal.Children, vevent.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

func encodeEvent(ev Event, stamp time.Time) (*ical.Event, error) {
	if ev.Title == "" {
		return nil, fmt.Errorf("event %q has no title", ev.UID)
	}
	if ev.Start.IsZero() {
		return nil, fmt.Errorf("event %q has no start", ev.Title)
	}

	uid := ev.UID
	if uid == "" {
		uid = uuid.NewString()
	}
	end := ev.End
	if end.IsZero() {
		end = defaultEnd(ev)
	}
	status := ev.Status
	if status == "" {
		status = StatusConfirmed
	}

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	vevent.Props.SetText(ical.PropSummary, ev.Title)
	vevent.Props.SetText(ical.PropStatus, status)
	if ev.Description != "" {
		vevent.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		vevent.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.RecurrenceRule != "" {
		vevent.Props.SetText(ical.PropRecurrenceRule, ev.RecurrenceRule)
	}

	if ev.AllDay {
		setDate(vevent, ical.PropDateTimeStart, ev.Start)
		setDate(vevent, ical.PropDateTimeEnd, end)
	} else {
		vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	}

	return vevent, nil
}

// setDate writes a bare-date property (VALUE=DATE) for all-day events.
func setDate(vevent *ical.Event, name string, t time.Time) {
	prop := ical.NewProp(name)
	prop.SetValueType(ical.ValueDate)
	prop.Value = t.Format(dateFormat)
	vevent.Props.Set(prop)
}
