package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHAT_POLL_INTERVAL_MS", "")
	t.Setenv("ADMIN_UIDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.TypingTimeout)
	assert.Empty(t, cfg.AdminUIDs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHAT_STORE", StoreMemory)
	t.Setenv("TYPING_TIMEOUT_MS", "1500")
	t.Setenv("ADMIN_UIDS", " alice, ,bob ")
	t.Setenv("PUSH_NOTIFICATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.ChatStore)
	assert.Equal(t, 1500*time.Millisecond, cfg.TypingTimeout)
	assert.Equal(t, []string{"alice", "bob"}, cfg.AdminUIDs)
	assert.False(t, cfg.PushNotifications)
}
