package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/internal/infrastructure/subscription"
	ws "portfoliochat/internal/infrastructure/websocket"
	"portfoliochat/internal/state"
	"portfoliochat/pkg/logger"
)

const streamWriteWait = 10 * time.Second

// FrameHandler receives every frame the server pushes.
type FrameHandler func(ws.WSMessage)

// Stream is a WebSocket connection to the chat server that reconnects on
// failure and replays its subscriptions after every reconnect.
type Stream struct {
	url     string
	handler FrameHandler

	mu   sync.Mutex
	conn *websocket.Conn
	subs map[string]ws.WSMessage
}

// NewVisitorStream connects as the visitor.
func NewVisitorStream(serverURL, visitorID string, handler FrameHandler) *Stream {
	return newStream(serverURL, url.Values{"visitor_id": {visitorID}}, handler)
}

// NewAdminStream connects with an admin ID token.
func NewAdminStream(serverURL, token string, handler FrameHandler) *Stream {
	return newStream(serverURL, url.Values{"token": {token}}, handler)
}

func newStream(serverURL string, query url.Values, handler FrameHandler) *Stream {
	u := strings.TrimRight(serverURL, "/")
	u = strings.Replace(u, "http://", "ws://", 1)
	u = strings.Replace(u, "https://", "wss://", 1)

	return &Stream{
		url:     u + "/ws?" + query.Encode(),
		handler: handler,
		subs:    map[string]ws.WSMessage{},
	}
}

// Run keeps the connection up until ctx ends.
func (s *Stream) Run(ctx context.Context, onState repository.StateListener) {
	subscription.Run(ctx, "ws", s.connect, onState)
}

func (s *Stream) connect(ctx context.Context, ready func()) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return fmt.Errorf("handshake rejected with %d: %w", resp.StatusCode, err)
		}
		return err
	}

	s.mu.Lock()
	s.conn = conn
	replay := make([]ws.WSMessage, 0, len(s.subs))
	for _, frame := range s.subs {
		replay = append(replay, frame)
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for _, frame := range replay {
		if err := s.write(frame); err != nil {
			return err
		}
	}
	ready()

	for {
		var frame ws.WSMessage
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}
		if s.handler != nil {
			s.handler(frame)
		}
	}
}

// SubscribeMessages follows a room's messages. The subscription survives
// reconnects.
func (s *Stream) SubscribeMessages(roomID string) error {
	return s.subscribe(ws.MessagesTopic(roomID), ws.NewFrame(ws.MessageTypeSubscribeMessages, roomID, nil))
}

func (s *Stream) SubscribeRoom(roomID string) error {
	return s.subscribe(ws.RoomTopic(roomID), ws.NewFrame(ws.MessageTypeSubscribeRoom, roomID, nil))
}

func (s *Stream) SubscribeRooms() error {
	return s.subscribe(ws.RoomsTopic, ws.NewFrame(ws.MessageTypeSubscribeRooms, "", nil))
}

func (s *Stream) Unsubscribe(topic string) error {
	s.mu.Lock()
	delete(s.subs, topic)
	s.mu.Unlock()

	return s.sendIfConnected(ws.NewFrame(ws.MessageTypeUnsubscribe, "", ws.UnsubscribeData{Topic: topic}))
}

func (s *Stream) SetTyping(roomID string, typing bool) error {
	return s.sendIfConnected(ws.NewFrame(ws.MessageTypeTyping, roomID, ws.TypingData{Typing: typing}))
}

func (s *Stream) MarkRead(roomID string) error {
	return s.sendIfConnected(ws.NewFrame(ws.MessageTypeMarkRead, roomID, nil))
}

func (s *Stream) subscribe(topic string, frame ws.WSMessage) error {
	s.mu.Lock()
	s.subs[topic] = frame
	s.mu.Unlock()

	// Sent on the next connect when offline.
	return s.sendIfConnected(frame)
}

func (s *Stream) sendIfConnected(frame ws.WSMessage) error {
	s.mu.Lock()
	connected := s.conn != nil
	s.mu.Unlock()
	if !connected {
		return nil
	}
	return s.write(frame)
}

func (s *Stream) write(frame ws.WSMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("stream is not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return s.conn.WriteJSON(frame)
}

// StateHandler applies server frames to the application state.
func StateHandler(app *state.AppState) FrameHandler {
	return func(frame ws.WSMessage) {
		switch frame.Type {
		case ws.MessageTypeMessages:
			var messages []*entity.ChatMessage
			if err := json.Unmarshal(frame.Data, &messages); err != nil {
				logger.Error("Stream: bad messages frame for %s: %v", frame.ChatID, err)
				return
			}
			app.SetMessages(frame.ChatID, messages)

		case ws.MessageTypeRoom:
			var room entity.ChatRoom
			if err := json.Unmarshal(frame.Data, &room); err != nil {
				logger.Error("Stream: bad room frame for %s: %v", frame.ChatID, err)
				return
			}
			app.SetCurrentRoom(&room)

		case ws.MessageTypeRooms:
			var list entity.RoomList
			if err := json.Unmarshal(frame.Data, &list); err != nil {
				logger.Error("Stream: bad rooms frame: %v", err)
				return
			}
			app.SetRooms(list.Rooms)

		case ws.MessageTypeError:
			var data ws.ErrorData
			json.Unmarshal(frame.Data, &data)
			logger.Warn("Stream: server error %s on %s: %s", data.Code, data.Topic, data.Message)
		}
	}
}
