package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliochat/internal/domain/entity"
)

func TestBuildRoomListOrdersByActivity(t *testing.T) {
	base := time.UnixMilli(1700000000000)
	rooms := []*entity.ChatRoom{
		{ID: "a", CreatedAt: base, UnreadCount: 1},
		{ID: "b", CreatedAt: base.Add(-time.Hour), LastMessageAt: base.Add(time.Minute), UnreadCount: 2},
		{ID: "d", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "c", CreatedAt: base.Add(2 * time.Minute), UnreadCount: 4},
	}

	list := BuildRoomList(rooms)

	ids := make([]string, 0, len(list.Rooms))
	for _, r := range list.Rooms {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "d", "b", "a"}, ids)
	assert.Equal(t, 7, list.TotalUnread)

	// The input slice is left untouched.
	assert.Equal(t, "a", rooms[0].ID)
}

func TestRoomListFollowsActivity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	first, err := env.chat.CreateRoom(ctx, "v_1")
	require.NoError(t, err)
	second, err := env.chat.CreateRoom(ctx, "v_2")
	require.NoError(t, err)

	list, err := env.roomList.ListRooms(ctx, "")
	require.NoError(t, err)
	require.Len(t, list.Rooms, 2)
	assert.Equal(t, second.ID, list.Rooms[0].ID)

	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: first.ID, SenderType: entity.SenderVisitor, SenderID: "v_1", Content: text("hello?")})
	require.NoError(t, err)

	list, err = env.roomList.ListRooms(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, list.Rooms[0].ID)
	assert.Equal(t, 1, list.TotalUnread)

	unread, err := env.roomList.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestListRoomsFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	open, err := env.chat.CreateRoom(ctx, "v_1")
	require.NoError(t, err)
	closed, err := env.chat.CreateRoom(ctx, "v_2")
	require.NoError(t, err)
	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: closed.ID, SenderType: entity.SenderVisitor, SenderID: "v_2", Content: text("bye")})
	require.NoError(t, err)
	require.NoError(t, env.presence.SetRoomStatus(ctx, closed.ID, entity.RoomClosed))

	list, err := env.roomList.ListRooms(ctx, entity.RoomOpen)
	require.NoError(t, err)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, open.ID, list.Rooms[0].ID)
	assert.Equal(t, 1, list.TotalUnread)
}

func TestEmptyRoomList(t *testing.T) {
	env := newTestEnv()

	list, err := env.roomList.ListRooms(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list.Rooms)
	assert.Zero(t, list.TotalUnread)
}
