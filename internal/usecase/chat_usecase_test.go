package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/infrastructure/ratelimit"
	"portfoliochat/pkg/errors"
)

func text(s string) entity.Content { return entity.TextContent{Text: s} }

func TestCreateRoomPostsWelcomeMessage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)
	assert.Equal(t, entity.RoomOpen, room.Status)
	assert.Zero(t, room.UnreadCount)

	messages, err := env.chat.ListMessages(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, entity.SenderSystem, messages[0].SenderType)
	assert.Equal(t, entity.SystemContent{Text: "Welcome!"}, messages[0].Content)
	assert.True(t, messages[0].IsRead)

	// The welcome message does not count as activity.
	got, err := env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LastMessage)
	assert.Zero(t, got.UnreadCount)
}

func TestCreateRoomRejectsBlockedVisitor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	_, err := env.visitors.Ensure(ctx, "v_bad")
	require.NoError(t, err)
	require.NoError(t, env.visitors.SetBlocked(ctx, "v_bad", true))

	_, err = env.chat.CreateRoom(ctx, "v_bad")
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestCreateRoomIsRateLimited(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	limiter := ratelimit.NewRateLimiterWithPolicies(map[string]ratelimit.Policy{
		ratelimit.ActionCreateChat: {Burst: 1, Every: time.Hour},
	})
	uc := NewChatUseCase(env.chatRepo, env.visitors, nil, limiter, "")

	_, err := uc.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)
	_, err = uc.CreateRoom(ctx, "v_abc")
	assert.True(t, errors.Is(err, "TOO_MANY_REQUESTS"))
}

func TestVisitorAndAdminConversation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	list := &latest[*entity.RoomList]{}
	unsubscribe, err := env.roomList.SubscribeRooms(ctx, list.listen, nil)
	require.NoError(t, err)
	defer unsubscribe()

	hi, err := env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: text("Hi")})
	require.NoError(t, err)
	assert.False(t, hi.IsRead)

	got, err := env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.LastMessage)
	assert.Equal(t, entity.SenderVisitor, got.LastMessageSender)
	assert.Equal(t, 1, got.UnreadCount)
	assert.False(t, got.LastMessageAt.IsZero())

	assert.Eventually(t, func() bool {
		l, err := list.get()
		return err == nil && l != nil && l.TotalUnread == 1 && len(l.Rooms) == 1 && l.Rooms[0].LastMessage == "Hi"
	}, time.Second, 5*time.Millisecond)

	hello, err := env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderAdmin, SenderID: "admin-1", Content: text("Hello")})
	require.NoError(t, err)
	assert.True(t, hello.IsRead)

	got, err = env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.LastMessage)
	assert.Equal(t, entity.SenderAdmin, got.LastMessageSender)
	assert.Equal(t, 1, got.UnreadCount)

	require.NoError(t, env.chat.MarkRead(ctx, room.ID))

	got, err = env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UnreadCount)

	messages, err := env.chat.ListMessages(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for _, m := range messages {
		assert.True(t, m.IsRead, "message %s", m.ID)
	}

	assert.Eventually(t, func() bool {
		l, err := list.get()
		return err == nil && l != nil && l.TotalUnread == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMessagesArriveInSendOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	feed := &latest[[]*entity.ChatMessage]{}
	unsubscribe, err := env.chat.SubscribeMessages(ctx, room.ID, feed.listen, nil)
	require.NoError(t, err)
	defer unsubscribe()

	want := []string{"one", "two", "three", "four"}
	for i, s := range want {
		sender := entity.SenderVisitor
		if i%2 == 1 {
			sender = entity.SenderAdmin
		}
		_, err := env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: sender, SenderID: "x", Content: text(s)})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		messages, err := feed.get()
		if err != nil || len(messages) != len(want)+1 {
			return false
		}
		for i, s := range want {
			if messages[i+1].Content != text(s) {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestSendClearsSenderTypingFlag(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	require.NoError(t, env.presence.SetTyping(ctx, room.ID, entity.PartyVisitor, true))
	require.NoError(t, env.presence.SetTyping(ctx, room.ID, entity.PartyAdmin, true))

	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: text("done typing")})
	require.NoError(t, err)

	got, err := env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, got.VisitorTyping)
	assert.True(t, got.AdminTyping)

	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderAdmin, SenderID: "admin-1", Content: text("reply")})
	require.NoError(t, err)

	got, err = env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, got.AdminTyping)
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	cases := map[string]entity.Content{
		"empty text":      text("   "),
		"too long":        text(strings.Repeat("가", entity.MaxTextLength+1)),
		"plain http":      entity.ImageContent{URL: "http://example.com/a.png"},
		"file name empty": entity.FileContent{URL: "https://example.com/a.pdf"},
		"nil content":     nil,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: content})
			assert.True(t, errors.Is(err, "BAD_REQUEST"), "got %v", err)
		})
	}

	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: text(strings.Repeat("가", entity.MaxTextLength))})
	assert.NoError(t, err)
}

func TestSendToMissingRoom(t *testing.T) {
	env := newTestEnv()

	_, err := env.chat.Send(context.Background(), SendMessageInput{RoomID: "missing", SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: text("hi")})
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestVisitorMessageReopensClosedRoom(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)
	require.NoError(t, env.presence.SetRoomStatus(ctx, room.ID, entity.RoomClosed))

	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderAdmin, SenderID: "admin-1", Content: text("bye")})
	require.NoError(t, err)
	got, err := env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoomClosed, got.Status)

	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: text("wait")})
	require.NoError(t, err)
	got, err = env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoomOpen, got.Status)
	assert.Nil(t, got.ClosedAt)
}

func TestBlockedVisitorCannotSend(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)
	require.NoError(t, env.visitors.SetBlocked(ctx, "v_abc", true))

	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: text("hi")})
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	// Admins can still answer.
	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderAdmin, SenderID: "admin-1", Content: text("hello")})
	assert.NoError(t, err)
}

func TestVisitorMessageNotifiesAdmins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	_, err = env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderAdmin, SenderID: "admin-1", Content: text("hello")})
	require.NoError(t, err)
	msg, err := env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: text("hi")})
	require.NoError(t, err)

	select {
	case got := <-env.notifier.sent:
		assert.Equal(t, msg.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("admins were not notified")
	}
	assert.Empty(t, env.notifier.sent)
}

func TestConcurrentVisitorMessagesCountEveryUnread(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.chat.Send(ctx, SendMessageInput{RoomID: room.ID, SenderType: entity.SenderVisitor, SenderID: "v_abc", Content: text("ping")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := env.chat.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.UnreadCount)
}

func TestGetVisitorRoomChecksOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)

	_, err = env.chat.GetVisitorRoom(ctx, room.ID, "v_abc")
	assert.NoError(t, err)
	_, err = env.chat.GetVisitorRoom(ctx, room.ID, "v_other")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	exists, err := env.chat.RoomExists(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMarkReadUnknownRoom(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	err := env.chat.MarkRead(ctx, "ghost")
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	snap, err := env.store.Get(ctx, "chats/ghost")
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}
