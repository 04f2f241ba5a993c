package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequestRespondDeliversExactBytes(t *testing.T) {
	m := NewManager()
	done := make(chan []byte, 1)

	go func() {
		payload, ok := m.Request(42)
		require.True(t, ok)
		done <- payload
	}()

	time.Sleep(10 * time.Millisecond)
	require.True(t, m.Respond(42, []byte("hello")))
	require.Equal(t, []byte("hello"), <-done)
}

func TestRespondToUnknownSessionReturnsFalse(t *testing.T) {
	m := NewManager()
	require.False(t, m.Respond(999, []byte("late")))
}

func TestRequestTimesOutWithoutResponse(t *testing.T) {
	orig := Timeout
	Timeout = 20 * time.Millisecond
	defer func() { Timeout = orig }()

	m := NewManager()
	_, ok := m.Request(7)
	require.False(t, ok)

	// A late response after the slot has expired is dropped.
	require.False(t, m.Respond(7, []byte("too late")))
}
