package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BlocksSecondEventWithinInterval(t *testing.T) {
	l := New(50 * time.Millisecond)

	assert.True(t, l.Allow("chat-1"))
	assert.False(t, l.Allow("chat-1"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, l.Allow("chat-1"))
}

func TestAllow_TracksKeysIndependently(t *testing.T) {
	l := New(50 * time.Millisecond)

	assert.True(t, l.Allow("chat-1"))
	assert.True(t, l.Allow("chat-2"))
}

func TestNew_DefaultsInterval(t *testing.T) {
	l := New(0)
	assert.Equal(t, DefaultInterval, l.interval)
}
