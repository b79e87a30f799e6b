package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_Transitions(t *testing.T) {
	m := New(false, nil)
	assert.False(t, m.Online())

	var got []bool
	cancel := m.Subscribe(func(online bool) { got = append(got, online) })
	defer cancel()

	m.Set(true)
	m.Set(true) // repeated report, no transition
	m.Set(false)

	assert.False(t, m.Online())
	assert.Equal(t, []bool{true, false}, got)
}

func TestMonitor_Unsubscribe(t *testing.T) {
	m := New(false, nil)

	calls := 0
	cancel := m.Subscribe(func(bool) { calls++ })

	m.Set(true)
	cancel()
	m.Set(false)

	assert.Equal(t, 1, calls)
}

func TestMonitor_MultipleSubscribers(t *testing.T) {
	m := New(true, nil)

	a, b := 0, 0
	m.Subscribe(func(bool) { a++ })
	m.Subscribe(func(bool) { b++ })

	m.Set(false)

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}
