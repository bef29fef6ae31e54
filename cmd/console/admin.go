package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"portfoliochat/internal/client"
	"portfoliochat/internal/domain/entity"
	ws "portfoliochat/internal/infrastructure/websocket"
	"portfoliochat/internal/state"
	"portfoliochat/internal/usecase"
)

const adminHelp = `Commands:
  /rooms            list chats, most recent first
  /open <n>         open chat n from the list and mark it read
  /replies          list quick replies
  /reply <n>        send quick reply n
  /close, /reopen   change the chat status
  /block, /unblock  block or unblock the chat's visitor
  /quit             leave
Any other line is sent to the open chat.`

func newAdminCmd() *cobra.Command {
	var (
		token         string
		typingTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Answer visitors as the portfolio owner",
		Long:  "Answer visitors as the portfolio owner.\n\n" + adminHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runAdmin(ctx, token, typingTimeout)
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", os.Getenv("CHAT_ADMIN_TOKEN"), "Firebase ID token of an admin (default $CHAT_ADMIN_TOKEN)")
	cmd.Flags().DurationVar(&typingTimeout, "typing-timeout", usecase.DefaultTypingTimeout, "idle time before the typing flag is withdrawn")
	return cmd
}

type adminSession struct {
	api     *client.Client
	stream  *client.Stream
	app     *state.AppState
	replies []*entity.QuickReply
}

func runAdmin(ctx context.Context, token string, typingTimeout time.Duration) error {
	if token == "" {
		return fmt.Errorf("an admin token is required")
	}

	api := client.New(serverURL, client.WithToken(token))
	// Fail fast on a bad token instead of retrying the stream forever.
	if _, err := api.UnreadCount(ctx); err != nil {
		return err
	}

	app := state.NewAppState()
	s := &adminSession{
		api:    api,
		stream: client.NewAdminStream(serverURL, token, client.StateHandler(app)),
		app:    app,
	}
	if err := s.stream.SubscribeRooms(); err != nil {
		return err
	}

	unsubscribe := app.Subscribe(newView(os.Stdout, entity.PartyAdmin, true).render)
	defer unsubscribe()

	marker := &readMarker{mark: s.stream.MarkRead}
	unsubscribeMarker := app.Subscribe(marker.observe)
	defer unsubscribeMarker()

	go s.stream.Run(ctx, app.SetConnection)

	typing := usecase.NewTypingDebouncer(ctx, openRoomTyping(app, s.stream.SetTyping), typingTimeout)
	defer typing.Stop()

	fmt.Println(adminHelp)
	return readLines(ctx, func(line string) error {
		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch command {
		case "/quit":
			return errQuit
		case "/rooms":
			s.printRooms()
		case "/open":
			s.open(arg)
		case "/replies":
			s.printReplies(ctx)
		case "/reply":
			s.reply(ctx, arg)
		case "/close":
			s.setStatus(ctx, entity.RoomClosed)
		case "/reopen":
			s.setStatus(ctx, entity.RoomOpen)
		case "/block":
			s.setBlocked(ctx, true)
		case "/unblock":
			s.setBlocked(ctx, false)
		default:
			typing.Input(line)
			s.send(ctx, line)
			typing.Sent()
		}
		return nil
	})
}

func (s *adminSession) printRooms() {
	snap := s.app.Snapshot()
	if len(snap.Rooms) == 0 {
		fmt.Println("-- no chats yet")
		return
	}
	for i, room := range snap.Rooms {
		fmt.Println(formatRoom(i, room))
	}
}

func (s *adminSession) open(arg string) {
	snap := s.app.Snapshot()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(snap.Rooms) {
		fmt.Println("-- usage: /open <n>, see /rooms")
		return
	}
	roomID := snap.Rooms[n-1].ID

	if prev := snap.CurrentRoomID; prev != "" && prev != roomID {
		s.stream.Unsubscribe(ws.MessagesTopic(prev))
		s.stream.Unsubscribe(ws.RoomTopic(prev))
	}
	s.app.SelectRoom(roomID)
	fmt.Printf("-- chat %s with %s\n", roomID, snap.Rooms[n-1].VisitorID)

	if err := s.stream.SubscribeMessages(roomID); err != nil {
		fmt.Printf("-- %v\n", err)
	}
	if err := s.stream.SubscribeRoom(roomID); err != nil {
		fmt.Printf("-- %v\n", err)
	}
	if err := s.stream.MarkRead(roomID); err != nil {
		fmt.Printf("-- %v\n", err)
	}
}

// current returns the open room or prints a hint.
func (s *adminSession) current() (*entity.ChatRoom, bool) {
	snap := s.app.Snapshot()
	if snap.CurrentRoomID == "" {
		fmt.Println("-- open a chat first, see /rooms")
		return nil, false
	}
	if snap.CurrentRoom == nil {
		return &entity.ChatRoom{ID: snap.CurrentRoomID}, true
	}
	return snap.CurrentRoom, true
}

func (s *adminSession) send(ctx context.Context, text string) {
	room, ok := s.current()
	if !ok {
		return
	}

	s.app.SetSending(true)
	defer s.app.SetSending(false)

	if _, err := s.api.SendMessage(ctx, room.ID, entity.TextContent{Text: text}); err != nil {
		fmt.Printf("-- not sent: %v\n", err)
		return
	}
	if err := s.api.MarkRead(ctx, room.ID); err != nil {
		fmt.Printf("-- mark read: %v\n", err)
	}
}

func (s *adminSession) printReplies(ctx context.Context) {
	replies, err := s.api.ListQuickReplies(ctx)
	if err != nil {
		fmt.Printf("-- %v\n", err)
		return
	}
	s.replies = replies
	for i, reply := range replies {
		fmt.Printf("%2d) %s %s: %s\n", i+1, reply.Emoji, reply.Title, reply.Content)
	}
}

func (s *adminSession) reply(ctx context.Context, arg string) {
	room, ok := s.current()
	if !ok {
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.replies) {
		fmt.Println("-- usage: /reply <n>, see /replies")
		return
	}

	if _, err := s.api.SendQuickReply(ctx, room.ID, s.replies[n-1].ID); err != nil {
		fmt.Printf("-- not sent: %v\n", err)
	}
}

func (s *adminSession) setStatus(ctx context.Context, status entity.RoomStatus) {
	room, ok := s.current()
	if !ok {
		return
	}
	if err := s.api.SetStatus(ctx, room.ID, status); err != nil {
		fmt.Printf("-- %v\n", err)
	}
}

func (s *adminSession) setBlocked(ctx context.Context, blocked bool) {
	room, ok := s.current()
	if !ok {
		return
	}
	if room.VisitorID == "" {
		fmt.Println("-- chat details not loaded yet")
		return
	}
	if err := s.api.SetVisitorBlocked(ctx, room.VisitorID, blocked); err != nil {
		fmt.Printf("-- %v\n", err)
		return
	}
	fmt.Printf("-- visitor %s blocked: %v\n", room.VisitorID, blocked)
}

// readMarker acknowledges visitor messages that arrive in the open chat, so
// the unread counter stays at zero while the admin is looking at it.
type readMarker struct {
	mark func(roomID string) error

	mu   sync.Mutex
	last string
}

func (r *readMarker) observe(snap state.Snapshot) {
	id, ok := lastUnreadVisitorMessage(snap)
	if !ok {
		return
	}

	r.mu.Lock()
	key := snap.CurrentRoomID + "/" + id
	if key == r.last {
		r.mu.Unlock()
		return
	}
	r.last = key
	r.mu.Unlock()

	if err := r.mark(snap.CurrentRoomID); err != nil {
		fmt.Printf("-- mark read: %v\n", err)
	}
}

// lastUnreadVisitorMessage returns the id of the newest unread visitor message
// of the open chat.
func lastUnreadVisitorMessage(snap state.Snapshot) (string, bool) {
	if snap.CurrentRoomID == "" {
		return "", false
	}
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		m := snap.Messages[i]
		if m.SenderType == entity.SenderVisitor && !m.IsRead {
			return m.ID, true
		}
	}
	return "", false
}

// openRoomTyping publishes the typing flag to whichever chat is open.
func openRoomTyping(app *state.AppState, set func(roomID string, typing bool) error) usecase.TypingSender {
	return func(ctx context.Context, typing bool) error {
		roomID := app.Snapshot().CurrentRoomID
		if roomID == "" {
			return nil
		}
		return set(roomID, typing)
	}
}
