package repository

import (
	"context"

	"portfoliochat/internal/domain/entity"
)

// Listener receives either a decoded value or the decode error of one change.
type Listener[T any] func(T, error)

// RoomSummary is the denormalized part of a room written after each message.
type RoomSummary struct {
	LastMessage       string
	LastMessageSender entity.SenderType
	// ClearTyping is the party whose typing flag is reset by the same write.
	ClearTyping entity.Party
	// Reopen flips a closed room back to open.
	Reopen bool
}

type ChatRepository interface {
	CreateRoom(ctx context.Context, visitorID string) (*entity.ChatRoom, error)
	GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
	ListRooms(ctx context.Context) ([]*entity.ChatRoom, error)

	UpdateSummary(ctx context.Context, roomID string, summary RoomSummary) error
	SetTyping(ctx context.Context, roomID string, party entity.Party, typing bool) error
	SetStatus(ctx context.Context, roomID string, status entity.RoomStatus) error
	IncrementUnread(ctx context.Context, roomID string) (int, error)
	// MarkRead zeroes the unread counter and flags the given messages read in
	// one write.
	MarkRead(ctx context.Context, roomID string, messageIDs []string) error

	AppendMessage(ctx context.Context, msg *entity.ChatMessage) error
	ListMessages(ctx context.Context, roomID string) ([]*entity.ChatMessage, error)

	SubscribeMessages(ctx context.Context, roomID string, fn Listener[[]*entity.ChatMessage], onState StateListener) (Unsubscribe, error)
	SubscribeRoom(ctx context.Context, roomID string, fn Listener[*entity.ChatRoom], onState StateListener) (Unsubscribe, error)
	SubscribeRooms(ctx context.Context, fn Listener[[]*entity.ChatRoom], onState StateListener) (Unsubscribe, error)
}
