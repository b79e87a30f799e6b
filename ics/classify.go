package ics

import "strings"

// EventType is the closed set of tags the product files events under.
type EventType string

const (
	EventShift       EventType = "shift"
	EventAppointment EventType = "appointment"
	EventOther       EventType = "other"
)

// classifyRules are checked in order; the first matching rule wins.
var classifyRules = []struct {
	keywords []string
	typ      EventType
}{
	{[]string{"plantão", "plantao"}, EventShift},
	{[]string{"consulta", "atendimento"}, EventAppointment},
}

// Classify maps a free-text event title to an event-type tag by
// case-insensitive substring matching. Titles matching no rule are
// classified as EventOther.
func Classify(title string) EventType {
	lower := strings.ToLower(title)
	for _, rule := range classifyRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.typ
			}
		}
	}
	return EventOther
}
