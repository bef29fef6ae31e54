package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"portfoliochat/internal/client"
	"portfoliochat/internal/domain/entity"
	ws "portfoliochat/internal/infrastructure/websocket"
	"portfoliochat/internal/session"
	"portfoliochat/internal/state"
	"portfoliochat/internal/usecase"
)

func newVisitorCmd() *cobra.Command {
	var typingTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "visitor",
		Short: "Chat as a portfolio visitor",
		Long: "Chat as a portfolio visitor. The visitor id and room are kept in the session file,\n" +
			"so the conversation continues across runs. Type /new for a fresh room, /quit to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runVisitor(ctx, typingTimeout)
		},
	}

	cmd.Flags().StringVar(&sessionFile, "session-file", defaultSessionFile(), "where the visitor id and room are stored")
	cmd.Flags().DurationVar(&typingTimeout, "typing-timeout", usecase.DefaultTypingTimeout, "idle time before the typing flag is withdrawn")
	return cmd
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".portfoliochat-session.toml"
	}
	return filepath.Join(dir, "portfoliochat", "session.toml")
}

type visitorSession struct {
	api      *client.Client
	resolver *session.Resolver
	stream   *client.Stream
	app      *state.AppState
	roomID   string
}

func runVisitor(ctx context.Context, typingTimeout time.Duration) error {
	api := client.New(serverURL)
	resolver := session.NewResolver(session.NewFileStorage(sessionFile), api)

	visitorID, err := resolver.VisitorID()
	if err != nil {
		return err
	}

	app := state.NewAppState()
	s := &visitorSession{
		api:      api.AsVisitor(visitorID),
		resolver: resolver,
		stream:   client.NewVisitorStream(serverURL, visitorID, client.StateHandler(app)),
		app:      app,
	}
	if err := s.join(ctx); err != nil {
		return err
	}

	unsubscribe := app.Subscribe(newView(os.Stdout, entity.PartyVisitor, false).render)
	defer unsubscribe()

	go s.stream.Run(ctx, app.SetConnection)

	typing := usecase.NewTypingDebouncer(ctx, func(ctx context.Context, typing bool) error {
		return s.stream.SetTyping(s.roomID, typing)
	}, typingTimeout)
	defer typing.Stop()

	fmt.Printf("Chatting as %s in room %s\n", visitorID, s.roomID)
	return readLines(ctx, func(line string) error {
		switch line {
		case "/quit":
			return errQuit
		case "/new":
			if err := s.resolver.Reset(); err != nil {
				return err
			}
			if err := s.join(ctx); err != nil {
				return err
			}
			fmt.Printf("-- new room %s\n", s.roomID)
			return nil
		}

		typing.Input(line)
		s.send(ctx, line)
		typing.Sent()
		return nil
	})
}

// join resolves the room and moves the stream's subscriptions to it.
func (s *visitorSession) join(ctx context.Context) error {
	roomID, err := s.resolver.RoomID(ctx)
	if err != nil {
		return err
	}

	if s.roomID != "" && s.roomID != roomID {
		s.stream.Unsubscribe(ws.MessagesTopic(s.roomID))
		s.stream.Unsubscribe(ws.RoomTopic(s.roomID))
	}
	s.roomID = roomID
	s.app.SelectRoom(roomID)

	if err := s.stream.SubscribeMessages(roomID); err != nil {
		return err
	}
	return s.stream.SubscribeRoom(roomID)
}

func (s *visitorSession) send(ctx context.Context, text string) {
	s.app.SetSending(true)
	defer s.app.SetSending(false)

	if _, err := s.api.SendMessage(ctx, s.roomID, entity.TextContent{Text: text}); err != nil {
		fmt.Printf("-- not sent: %v\n", err)
	}
}

var errQuit = errors.New("quit")

// readLines calls fn for every non-empty stdin line until EOF, ctx ends or fn
// returns an error. errQuit ends the loop without an error.
func readLines(ctx context.Context, fn func(line string) error) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := fn(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
	}
}
