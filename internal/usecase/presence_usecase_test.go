package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/pkg/errors"
)

func TestTypingFlagsReachRoomSubscribers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	live := &latest[*entity.ChatRoom]{}
	unsubscribe, err := env.presence.SubscribeRoom(ctx, room.ID, live.listen, nil)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, env.presence.SetTyping(ctx, room.ID, entity.PartyAdmin, true))
	assert.Eventually(t, func() bool {
		r, err := live.get()
		return err == nil && r != nil && r.AdminTyping && !r.VisitorTyping
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, env.presence.SetTyping(ctx, room.ID, entity.PartyAdmin, false))
	assert.Eventually(t, func() bool {
		r, err := live.get()
		return err == nil && r != nil && !r.AdminTyping
	}, time.Second, 5*time.Millisecond)
}

func TestSetTypingOnMissingRoom(t *testing.T) {
	env := newTestEnv()

	err := env.presence.SetTyping(context.Background(), "missing", entity.PartyVisitor, true)
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	// No record is created as a side effect.
	exists, err := env.chat.RoomExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSetRoomStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	require.NoError(t, env.presence.SetRoomStatus(ctx, room.ID, entity.RoomClosed))
	got, err := env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoomClosed, got.Status)
	assert.NotNil(t, got.ClosedAt)

	require.NoError(t, env.presence.SetRoomStatus(ctx, room.ID, entity.RoomOpen))
	got, err = env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoomOpen, got.Status)
	assert.Nil(t, got.ClosedAt)

	err = env.presence.SetRoomStatus(ctx, room.ID, "archived")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}
