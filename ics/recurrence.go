package ics

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ExpandRecurrences materializes a recurring event's occurrences within
// [rangeStart, rangeEnd], each occurrence keeping the master's duration and
// fields. A non-recurring event is returned as-is when it overlaps the
// range. Shift schedules imported from hospital rosters typically recur
// weekly, so imports expand them into concrete agenda entries.
func ExpandRecurrences(ev Event, rangeStart, rangeEnd time.Time) ([]Event, error) {
	if ev.RecurrenceRule == "" {
		if !ev.Start.After(rangeEnd) && !ev.End.Before(rangeStart) {
			return []Event{ev}, nil
		}
		return nil, nil
	}

	dtstart := ev.Start.UTC().Format("20060102T150405Z")
	ruleSet, err := rrule.StrToRRuleSet(fmt.Sprintf("DTSTART:%s\nRRULE:%s", dtstart, ev.RecurrenceRule))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE %q: %w", ev.RecurrenceRule, err)
	}

	// Between is inclusive of the range start, exclusive of the end.
	occurrences := ruleSet.Between(rangeStart.UTC(), rangeEnd.UTC(), true)
	duration := ev.End.Sub(ev.Start)

	events := make([]Event, 0, len(occurrences))
	for _, occ := range occurrences {
		instance := ev
		instance.Start = occ
		instance.End = occ.Add(duration)
		instance.RecurrenceRule = ""
		events = append(events, instance)
	}
	return events, nil
}
