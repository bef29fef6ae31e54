package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowConsumesBurstThenWaits(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		ok, _ := rl.Allow("v_1", ActionCreateChat)
		assert.True(t, ok, "attempt %d", i)
	}

	ok, wait := rl.Allow("v_1", ActionCreateChat)
	assert.False(t, ok)
	assert.InDelta(t, (12 * time.Minute).Seconds(), wait.Seconds(), 1)

	// Other identities and actions have their own buckets.
	ok, _ = rl.Allow("v_2", ActionCreateChat)
	assert.True(t, ok)
	ok, _ = rl.Allow("v_1", ActionSendMessage)
	assert.True(t, ok)

	now = now.Add(12 * time.Minute)
	ok, _ = rl.Allow("v_1", ActionCreateChat)
	assert.True(t, ok)
}

func TestGetStatusAndCleanup(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }

	tokens, max := rl.GetStatus("v_1", ActionTyping)
	assert.Equal(t, 30, tokens)
	assert.Equal(t, 30, max)

	rl.Allow("v_1", ActionTyping)
	tokens, _ = rl.GetStatus("v_1", ActionTyping)
	assert.Equal(t, 29, tokens)

	now = now.Add(2 * time.Hour)
	rl.Cleanup()
	assert.Empty(t, rl.buckets)
}
