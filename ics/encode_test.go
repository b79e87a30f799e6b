package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_Envelope(t *testing.T) {
	out, err := Serialize([]Event{{
		UID:   "evt-1",
		Title: "Plantão UTI",
		Start: time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 2, 7, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, out, "VERSION:2.0\r\n")
	assert.Contains(t, out, "PRODID:")
	assert.Contains(t, out, "CALSCALE:GREGORIAN\r\n")
	assert.Contains(t, out, "UID:evt-1\r\n")
	assert.Contains(t, out, "DTSTAMP:")
	assert.Contains(t, out, "STATUS:CONFIRMED\r\n")
	assert.Contains(t, out, "END:VCALENDAR")
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n", "all line endings must be CRLF")
}

// Repeated exports of the same event keep the same UID.
func TestSerialize_StableUID(t *testing.T) {
	ev := Event{
		UID:   "evt-stable",
		Title: "Consulta",
		Start: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
	}

	first, err := Serialize([]Event{ev})
	require.NoError(t, err)
	second, err := Serialize([]Event{ev})
	require.NoError(t, err)

	assert.Contains(t, first, "UID:evt-stable\r\n")
	assert.Contains(t, second, "UID:evt-stable\r\n")
}

func TestSerialize_RejectsIncompleteEvents(t *testing.T) {
	_, err := Serialize([]Event{{Start: time.Now()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")

	_, err = Serialize([]Event{{Title: "sem horário"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start")
}

// parse(serialize(events)) reproduces title, start, end and location.
func TestRoundTrip(t *testing.T) {
	events := []Event{
		{
			UID: "rt-1", Title: "Plantão UTI", Location: "Hospital Central",
			Start: time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 2, 7, 0, 0, 0, time.UTC),
		},
		{
			UID: "rt-2", Title: "Consulta Dra. Lima", Location: "Consultório 12",
			Start: time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC),
		},
		{
			UID: "rt-3", Title: "Atendimento ambulatório",
			Start: time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			UID: "rt-4", Title: "Reunião clínica", Location: "Sala 3",
			Description: "Pauta:\nescala de abril",
			Start:       time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC),
			End:         time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			UID: "rt-5", Title: "Plantão noturno", Location: "UPA Zona Norte",
			Start: time.Date(2025, 5, 2, 19, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 5, 3, 7, 0, 0, 0, time.UTC),
		},
	}

	out, err := Serialize(events)
	require.NoError(t, err)

	parsed, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, parsed, len(events))

	for i, want := range events {
		got := parsed[i]
		assert.Equal(t, want.UID, got.UID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Location, got.Location)
		assert.True(t, got.Start.Equal(want.Start), "event %d start: got %v want %v", i, got.Start, want.Start)
		assert.True(t, got.End.Equal(want.End), "event %d end: got %v want %v", i, got.End, want.End)
	}
}

func TestRoundTrip_AllDay(t *testing.T) {
	ev := Event{
		UID:    "ad-1",
		Title:  "Congresso",
		AllDay: true,
		Start:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local),
		End:    time.Date(2025, 3, 12, 0, 0, 0, 0, time.Local),
	}

	out, err := Serialize([]Event{ev})
	require.NoError(t, err)
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250310\r\n")

	parsed, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.True(t, parsed[0].AllDay)
	assert.True(t, parsed[0].Start.Equal(ev.Start))
	assert.True(t, parsed[0].End.Equal(ev.End))
}
