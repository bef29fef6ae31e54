package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliochat/internal/adapter/api"
	"portfoliochat/internal/adapter/api/handler"
	"portfoliochat/internal/adapter/api/middleware"
	"portfoliochat/internal/adapter/api/router"
	adapterrepo "portfoliochat/internal/adapter/repository"
	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/infrastructure/ratelimit"
	"portfoliochat/internal/infrastructure/websocket"
	"portfoliochat/internal/session"
	"portfoliochat/internal/state"
	"portfoliochat/internal/usecase"
	"portfoliochat/pkg/errors"
)

type staticAuth struct{}

func (staticAuth) VerifyToken(ctx context.Context, token string) (string, map[string]interface{}, error) {
	if token != "admin-token" {
		return "", nil, fmt.Errorf("bad token")
	}
	return "admin-1", map[string]interface{}{"admin": true}, nil
}

// newServer runs the whole API over the in-memory store.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := adapterrepo.NewMemoryRecordStore()
	chatRepo := adapterrepo.NewChatRepository(store)
	visitorRepo := adapterrepo.NewVisitorRepository(store)

	chatUseCase := usecase.NewChatUseCase(chatRepo, visitorRepo, nil, nil, "Welcome!")
	presenceUseCase := usecase.NewPresenceUseCase(chatRepo)
	roomListUseCase := usecase.NewRoomListUseCase(chatRepo)
	attachmentUseCase := usecase.NewAttachmentUseCase(nil, chatRepo)
	quickReplyUseCase := usecase.NewQuickReplyUseCase(adapterrepo.NewMemoryQuickReplyRepository())
	adminUseCase := usecase.NewAdminUseCase(adapterrepo.NewMemoryAdminRepository(), visitorRepo)

	authMiddleware := middleware.NewAuthMiddleware(staticAuth{}, nil)
	wsManager := websocket.NewManager(handler.NewLiveChatService(chatUseCase, presenceUseCase, roomListUseCase), nil)
	wsManager.Start(ctx)

	e := echo.New()
	e.Validator = api.NewValidator()
	router.Setup(e, router.Handlers{
		Chat:       handler.NewChatHandler(chatUseCase, presenceUseCase, attachmentUseCase),
		Admin:      handler.NewAdminHandler(chatUseCase, presenceUseCase, roomListUseCase, attachmentUseCase, quickReplyUseCase, adminUseCase),
		QuickReply: handler.NewQuickReplyHandler(quickReplyUseCase),
		WebSocket:  handler.NewWebSocketHandler(wsManager, authMiddleware, nil),
		Health:     handler.NewHealthHandler(chatUseCase, wsManager),
	}, router.Middlewares{
		Auth:    authMiddleware,
		Admin:   middleware.NewAdminMiddleware(),
		Visitor: middleware.NewVisitorMiddleware(chatUseCase),
	}, ratelimit.NewRateLimiter())

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

func TestResolverAgainstServer(t *testing.T) {
	ctx := context.Background()
	server := newServer(t)
	api := New(server.URL)
	storage := session.NewMemoryStorage()
	resolver := session.NewResolver(storage, api)

	roomID, err := resolver.RoomID(ctx)
	require.NoError(t, err)

	again, err := resolver.RoomID(ctx)
	require.NoError(t, err)
	assert.Equal(t, roomID, again)

	// A room id cached by another server is stale.
	require.NoError(t, storage.Set(session.KeyChatID, "unknown-room"))
	fresh, err := resolver.RoomID(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "unknown-room", fresh)
}

func TestRoomExistsKeepsTransportErrors(t *testing.T) {
	server := newServer(t)
	api := New(server.URL)
	server.Close()

	_, err := api.RoomExists(context.Background(), "v_alice", "room-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "STORE_UNAVAILABLE"))
}

func TestVisitorAndAdminConversation(t *testing.T) {
	ctx := context.Background()
	server := newServer(t)

	visitor := New(server.URL).AsVisitor("v_alice")
	admin := New(server.URL, WithToken("admin-token"))

	roomID, err := visitor.CreateRoom(ctx, "v_alice")
	require.NoError(t, err)

	_, err = visitor.SendMessage(ctx, roomID, entity.TextContent{Text: "Hi, are you available?"})
	require.NoError(t, err)

	count, err := admin.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	list, err := admin.ListRooms(ctx, entity.RoomOpen)
	require.NoError(t, err)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "Hi, are you available?", list.Rooms[0].LastMessage)

	require.NoError(t, admin.MarkRead(ctx, roomID))
	replies, err := admin.ListQuickReplies(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, replies)
	_, err = admin.SendQuickReply(ctx, roomID, replies[0].ID)
	require.NoError(t, err)

	messages, err := visitor.ListMessages(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, entity.SenderSystem, messages[0].SenderType)
	assert.Equal(t, entity.SenderVisitor, messages[1].SenderType)
	assert.True(t, messages[1].IsRead)
	assert.Equal(t, entity.SenderAdmin, messages[2].SenderType)

	count, err = admin.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = admin.ListRooms(ctx, "")
	require.NoError(t, err)
	_, err = New(server.URL, WithToken("nope")).ListRooms(ctx, "")
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}

func TestStreamFeedsAppState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	server := newServer(t)

	visitor := New(server.URL).AsVisitor("v_alice")
	roomID, err := visitor.CreateRoom(ctx, "v_alice")
	require.NoError(t, err)

	app := state.NewAppState()
	app.SelectRoom(roomID)

	stream := NewAdminStream(server.URL, "admin-token", StateHandler(app))
	require.NoError(t, stream.SubscribeRooms())
	require.NoError(t, stream.SubscribeMessages(roomID))
	require.NoError(t, stream.SubscribeRoom(roomID))
	done := make(chan struct{})
	go func() {
		defer close(done)
		stream.Run(ctx, app.SetConnection)
	}()

	assert.Eventually(t, func() bool {
		snap := app.Snapshot()
		return snap.Connection == entity.ConnectionLive && len(snap.Messages) == 1 && len(snap.Rooms) == 1
	}, 5*time.Second, 20*time.Millisecond)

	_, err = visitor.SendMessage(ctx, roomID, entity.TextContent{Text: "hello"})
	require.NoError(t, err)
	require.NoError(t, visitor.SetTyping(ctx, roomID, true))

	assert.Eventually(t, func() bool {
		snap := app.Snapshot()
		return len(snap.Messages) == 2 && snap.TotalUnread == 1 &&
			snap.CurrentRoom != nil && snap.CurrentRoom.VisitorTyping
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, stream.MarkRead(roomID))
	assert.Eventually(t, func() bool {
		return app.Snapshot().TotalUnread == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}
