package websocket

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/internal/infrastructure/ratelimit"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/metrics"
)

// WebSocket Message Types
const (
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeSubscribeMessages = "subscribe_messages"
	MessageTypeSubscribeRoom     = "subscribe_room"
	MessageTypeSubscribeRooms    = "subscribe_rooms"
	MessageTypeUnsubscribe       = "unsubscribe"
	MessageTypeTyping            = "typing"
	MessageTypeMarkRead          = "mark_read"

	MessageTypeMessages   = "messages"
	MessageTypeRoom       = "room"
	MessageTypeRooms      = "rooms"
	MessageTypeSubscribed = "subscribed"
	MessageTypeError      = "error"
)

// WebSocket Message Structure
type WSMessage struct {
	Type      string          `json:"type"`
	ChatID    string          `json:"chat_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type TypingData struct {
	Typing bool `json:"typing"`
}

type UnsubscribeData struct {
	Topic string `json:"topic"`
}

type SubscribedData struct {
	Topic string `json:"topic"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Topic   string `json:"topic,omitempty"`
}

// ChatService is what the hub needs from the chat use cases.
type ChatService interface {
	SubscribeMessages(ctx context.Context, roomID string, fn repository.Listener[[]*entity.ChatMessage], onState repository.StateListener) (repository.Unsubscribe, error)
	SubscribeRoom(ctx context.Context, roomID string, fn repository.Listener[*entity.ChatRoom], onState repository.StateListener) (repository.Unsubscribe, error)
	SubscribeRooms(ctx context.Context, fn repository.Listener[*entity.RoomList], onState repository.StateListener) (repository.Unsubscribe, error)
	RoomOwner(ctx context.Context, roomID string) (string, error)
	SetTyping(ctx context.Context, roomID string, party entity.Party, typing bool) error
	MarkRead(ctx context.Context, roomID string) error
}

func MessagesTopic(roomID string) string { return "messages:" + roomID }
func RoomTopic(roomID string) string     { return "room:" + roomID }

const RoomsTopic = "rooms"

func topicKind(topic string) string {
	kind, _, _ := strings.Cut(topic, ":")
	return kind
}

// NewFrame builds a frame with data encoded as JSON.
func NewFrame(msgType, chatID string, data interface{}) WSMessage {
	frame := WSMessage{
		Type:      msgType,
		ChatID:    chatID,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Printf("WebSocket: Failed to encode %s data: %v", msgType, err)
		}
		frame.Data = raw
	}
	return frame
}

// HandleClientMessage processes incoming WebSocket messages
func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var wsMessage WSMessage

	if err := json.Unmarshal(messageBytes, &wsMessage); err != nil {
		log.Printf("WebSocket: Failed to unmarshal message from client %s: %v", client.ID, err)
		m.sendError(client, "", "", errors.BadRequest("Invalid message format", err))
		return
	}

	switch wsMessage.Type {
	case MessageTypePing:
		m.enqueue(client, NewFrame(MessageTypePong, "", map[string]string{"status": "alive"}))

	case MessageTypeSubscribeMessages:
		m.handleSubscribeMessages(client, wsMessage.ChatID)

	case MessageTypeSubscribeRoom:
		m.handleSubscribeRoom(client, wsMessage.ChatID)

	case MessageTypeSubscribeRooms:
		m.handleSubscribeRooms(client)

	case MessageTypeUnsubscribe:
		m.handleUnsubscribe(client, wsMessage)

	case MessageTypeTyping:
		m.handleTyping(client, wsMessage)

	case MessageTypeMarkRead:
		m.handleMarkRead(client, wsMessage.ChatID)

	default:
		log.Printf("WebSocket: Unknown message type '%s' from client %s", wsMessage.Type, client.ID)
		m.sendError(client, wsMessage.ChatID, "", errors.BadRequest("Unknown message type", nil))
	}
}

// authorizeRoom lets admins into every room and visitors into their own.
func (m *Manager) authorizeRoom(client *Client, roomID string) error {
	if roomID == "" {
		return errors.BadRequest("chat_id is required", nil)
	}
	if client.Role == RoleAdmin {
		return nil
	}

	owner, err := m.service.RoomOwner(client.ctx, roomID)
	if err != nil {
		return err
	}
	if owner != client.Identity {
		return errors.Forbidden("Chat belongs to another visitor", nil)
	}
	return nil
}

func (m *Manager) handleSubscribeMessages(client *Client, roomID string) {
	if err := m.authorizeRoom(client, roomID); err != nil {
		m.sendError(client, roomID, MessagesTopic(roomID), err)
		return
	}

	topic := MessagesTopic(roomID)
	m.subscribe(client, topic, roomID, func(ctx context.Context) (repository.Unsubscribe, error) {
		return m.service.SubscribeMessages(ctx, roomID, func(messages []*entity.ChatMessage, err error) {
			if err != nil {
				m.sendError(client, roomID, topic, err)
				return
			}
			m.enqueue(client, NewFrame(MessageTypeMessages, roomID, messages))
		}, m.stateLogger(client, topic))
	})
}

func (m *Manager) handleSubscribeRoom(client *Client, roomID string) {
	if err := m.authorizeRoom(client, roomID); err != nil {
		m.sendError(client, roomID, RoomTopic(roomID), err)
		return
	}

	topic := RoomTopic(roomID)
	m.subscribe(client, topic, roomID, func(ctx context.Context) (repository.Unsubscribe, error) {
		return m.service.SubscribeRoom(ctx, roomID, func(room *entity.ChatRoom, err error) {
			if err != nil {
				m.sendError(client, roomID, topic, err)
				return
			}
			m.enqueue(client, NewFrame(MessageTypeRoom, roomID, room))
		}, m.stateLogger(client, topic))
	})
}

func (m *Manager) handleSubscribeRooms(client *Client) {
	if client.Role != RoleAdmin {
		m.sendError(client, "", RoomsTopic, errors.Forbidden("Admin access required", nil))
		return
	}

	m.subscribe(client, RoomsTopic, "", func(ctx context.Context) (repository.Unsubscribe, error) {
		return m.service.SubscribeRooms(ctx, func(list *entity.RoomList, err error) {
			if err != nil {
				m.sendError(client, "", RoomsTopic, err)
				return
			}
			m.enqueue(client, NewFrame(MessageTypeRooms, "", list))
		}, m.stateLogger(client, RoomsTopic))
	})
}

// subscribe opens the topic for the client, replacing an earlier
// subscription to the same topic.
func (m *Manager) subscribe(client *Client, topic, roomID string, open func(ctx context.Context) (repository.Unsubscribe, error)) {
	client.dropSubscription(topic)

	unsubscribe, err := open(client.ctx)
	if err != nil {
		m.sendError(client, roomID, topic, err)
		return
	}

	if client.ctx.Err() != nil {
		unsubscribe()
		return
	}
	client.subs.Set(topic, unsubscribe)
	metrics.SubscriptionOpened(topicKind(topic))

	m.enqueue(client, NewFrame(MessageTypeSubscribed, roomID, SubscribedData{Topic: topic}))
}

func (m *Manager) handleUnsubscribe(client *Client, msg WSMessage) {
	var data UnsubscribeData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, msg.ChatID, "", errors.BadRequest("Invalid unsubscribe data", err))
			return
		}
	}
	if data.Topic == "" {
		m.sendError(client, msg.ChatID, "", errors.BadRequest("topic is required", nil))
		return
	}

	if !client.dropSubscription(data.Topic) {
		log.Printf("WebSocket: Client %s was not subscribed to %s", client.ID, data.Topic)
	}
}

func (m *Manager) handleTyping(client *Client, msg WSMessage) {
	var data TypingData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		m.sendError(client, msg.ChatID, "", errors.BadRequest("Invalid typing data", err))
		return
	}
	if err := m.authorizeRoom(client, msg.ChatID); err != nil {
		m.sendError(client, msg.ChatID, "", err)
		return
	}

	if m.rateLimiter != nil {
		if allowed, _ := m.rateLimiter.Allow(client.Identity, ratelimit.ActionTyping); !allowed {
			m.sendError(client, msg.ChatID, "", errors.TooManyRequests("Too many typing updates"))
			return
		}
	}

	party := entity.PartyVisitor
	if client.Role == RoleAdmin {
		party = entity.PartyAdmin
	}
	if err := m.service.SetTyping(client.ctx, msg.ChatID, party, data.Typing); err != nil {
		m.sendError(client, msg.ChatID, "", err)
	}
}

func (m *Manager) handleMarkRead(client *Client, roomID string) {
	if client.Role != RoleAdmin {
		m.sendError(client, roomID, "", errors.Forbidden("Admin access required", nil))
		return
	}
	if roomID == "" {
		m.sendError(client, "", "", errors.BadRequest("chat_id is required", nil))
		return
	}

	if err := m.service.MarkRead(client.ctx, roomID); err != nil {
		m.sendError(client, roomID, "", err)
	}
}

func (m *Manager) stateLogger(client *Client, topic string) repository.StateListener {
	return func(state entity.ConnectionState) {
		log.Printf("WebSocket: Client %s topic %s is %s", client.ID, topic, state)
	}
}

func (m *Manager) sendError(client *Client, chatID, topic string, err error) {
	data := ErrorData{Code: "INTERNAL_ERROR", Message: "Something went wrong", Topic: topic}

	if appErr, ok := errors.From(err); ok {
		data.Code = appErr.Code
		data.Message = appErr.Message
	}
	log.Printf("WebSocket: Error for client %s (%s): %v", client.ID, topic, err)

	m.enqueue(client, NewFrame(MessageTypeError, chatID, data))
}
