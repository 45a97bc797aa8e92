package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendLimiter_BurstThenThrottle(t *testing.T) {
	l := NewSendLimiter(60, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("alice"), "request %d is within burst", i)
	}
	assert.False(t, l.allow("alice"), "burst exhausted")
}

func TestSendLimiter_PerUserBuckets(t *testing.T) {
	l := NewSendLimiter(60, 1)

	assert.True(t, l.allow("alice"))
	assert.False(t, l.allow("alice"))

	// One user draining their bucket must not affect another.
	assert.True(t, l.allow("bob"))
}
