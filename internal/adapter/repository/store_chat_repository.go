package repository

import (
	"context"
	"fmt"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/logger"
)

const chatsPath = "chats"

type storeChatRepository struct {
	store repository.RecordStore
}

func NewChatRepository(store repository.RecordStore) repository.ChatRepository {
	return &storeChatRepository{
		store: store,
	}
}

func roomPath(roomID string) string {
	return chatsPath + "/" + roomID
}

func messagesPath(roomID string) string {
	return roomPath(roomID) + "/messages"
}

func checkRoomID(roomID string) error {
	if !validKey(roomID) {
		return errors.BadRequest("Invalid chat id", nil)
	}
	return nil
}

func (r *storeChatRepository) CreateRoom(ctx context.Context, visitorID string) (*entity.ChatRoom, error) {
	if !validKey(visitorID) {
		return nil, errors.BadRequest("Invalid visitor id", nil)
	}

	roomID, err := r.store.Push(ctx, chatsPath, map[string]interface{}{
		"visitorId":     visitorID,
		"status":        string(entity.RoomOpen),
		"createdAt":     repository.ServerTimestamp,
		"unreadCount":   0,
		"visitorTyping": false,
		"adminTyping":   false,
	})
	if err != nil {
		return nil, err
	}

	return r.GetRoom(ctx, roomID)
}

func (r *storeChatRepository) GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	if err := checkRoomID(roomID); err != nil {
		return nil, err
	}

	snap, err := r.store.Get(ctx, roomPath(roomID))
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, errors.NotFound("Chat", nil)
	}

	return decodeRoom(snap.Path, roomID, snap.Raw)
}

func (r *storeChatRepository) RoomExists(ctx context.Context, roomID string) (bool, error) {
	if !validKey(roomID) {
		return false, nil
	}

	// Reading a single field avoids downloading the message log.
	snap, err := r.store.Get(ctx, roomPath(roomID)+"/visitorId")
	if err != nil {
		return false, err
	}
	return snap.Exists(), nil
}

func (r *storeChatRepository) ListRooms(ctx context.Context) ([]*entity.ChatRoom, error) {
	snap, err := r.store.Get(ctx, chatsPath)
	if err != nil {
		return nil, err
	}
	return decodeRooms(snap.Path, snap.Raw)
}

func (r *storeChatRepository) UpdateSummary(ctx context.Context, roomID string, summary repository.RoomSummary) error {
	if err := checkRoomID(roomID); err != nil {
		return err
	}

	fields := map[string]interface{}{
		"lastMessage":       summary.LastMessage,
		"lastMessageAt":     repository.ServerTimestamp,
		"lastMessageSender": string(summary.LastMessageSender),
	}
	if summary.ClearTyping.Valid() {
		fields[summary.ClearTyping.TypingField()] = false
	}
	if summary.Reopen {
		fields["status"] = string(entity.RoomOpen)
		fields["closedAt"] = nil
	}

	return r.store.Update(ctx, roomPath(roomID), fields)
}

func (r *storeChatRepository) SetTyping(ctx context.Context, roomID string, party entity.Party, typing bool) error {
	if err := checkRoomID(roomID); err != nil {
		return err
	}
	if !party.Valid() {
		return errors.BadRequest(fmt.Sprintf("Unknown party %q", party), nil)
	}

	return r.store.Update(ctx, roomPath(roomID), map[string]interface{}{
		party.TypingField(): typing,
	})
}

func (r *storeChatRepository) SetStatus(ctx context.Context, roomID string, status entity.RoomStatus) error {
	if err := checkRoomID(roomID); err != nil {
		return err
	}
	if !status.Valid() {
		return errors.BadRequest(fmt.Sprintf("Unknown status %q", status), nil)
	}

	fields := map[string]interface{}{
		"status": string(status),
	}
	if status == entity.RoomClosed {
		fields["closedAt"] = repository.ServerTimestamp
	} else {
		fields["closedAt"] = nil
	}

	return r.store.Update(ctx, roomPath(roomID), fields)
}

func (r *storeChatRepository) IncrementUnread(ctx context.Context, roomID string) (int, error) {
	if err := checkRoomID(roomID); err != nil {
		return 0, err
	}
	return r.store.Increment(ctx, roomPath(roomID)+"/unreadCount", 1)
}

func (r *storeChatRepository) MarkRead(ctx context.Context, roomID string, messageIDs []string) error {
	if err := checkRoomID(roomID); err != nil {
		return err
	}

	fields := map[string]interface{}{
		"unreadCount": 0,
	}
	for _, id := range messageIDs {
		if !validKey(id) {
			return errors.BadRequest("Invalid message id", nil)
		}
		fields["messages/"+id+"/isRead"] = true
	}

	return r.store.Update(ctx, roomPath(roomID), fields)
}

func (r *storeChatRepository) AppendMessage(ctx context.Context, msg *entity.ChatMessage) error {
	if err := checkRoomID(msg.RoomID); err != nil {
		return err
	}

	id, err := r.store.Push(ctx, messagesPath(msg.RoomID), newMessageRecord(msg))
	if err != nil {
		return err
	}
	msg.ID = id

	// Read back the committed server timestamp.
	snap, err := r.store.Get(ctx, messagesPath(msg.RoomID)+"/"+id)
	if err != nil {
		logger.Warn("Message %s stored but not read back: %v", id, err)
		return nil
	}
	stored, err := decodeMessage(snap.Path, msg.RoomID, id, snap.Raw)
	if err != nil {
		return err
	}
	msg.CreatedAt = stored.CreatedAt
	return nil
}

func (r *storeChatRepository) ListMessages(ctx context.Context, roomID string) ([]*entity.ChatMessage, error) {
	if err := checkRoomID(roomID); err != nil {
		return nil, err
	}

	snap, err := r.store.Get(ctx, messagesPath(roomID))
	if err != nil {
		return nil, err
	}
	return decodeMessages(snap.Path, roomID, snap.Raw)
}

func (r *storeChatRepository) SubscribeMessages(ctx context.Context, roomID string, fn repository.Listener[[]*entity.ChatMessage], onState repository.StateListener) (repository.Unsubscribe, error) {
	if err := checkRoomID(roomID); err != nil {
		return nil, err
	}

	return r.store.Subscribe(ctx, messagesPath(roomID), func(snap repository.Snapshot) {
		fn(decodeMessages(snap.Path, roomID, snap.Raw))
	}, onState)
}

func (r *storeChatRepository) SubscribeRoom(ctx context.Context, roomID string, fn repository.Listener[*entity.ChatRoom], onState repository.StateListener) (repository.Unsubscribe, error) {
	if err := checkRoomID(roomID); err != nil {
		return nil, err
	}

	return r.store.Subscribe(ctx, roomPath(roomID), func(snap repository.Snapshot) {
		if !snap.Exists() {
			fn(nil, errors.NotFound("Chat", nil))
			return
		}
		fn(decodeRoom(snap.Path, roomID, snap.Raw))
	}, onState)
}

func (r *storeChatRepository) SubscribeRooms(ctx context.Context, fn repository.Listener[[]*entity.ChatRoom], onState repository.StateListener) (repository.Unsubscribe, error) {
	return r.store.Subscribe(ctx, chatsPath, func(snap repository.Snapshot) {
		fn(decodeRooms(snap.Path, snap.Raw))
	}, onState)
}

// decodeRooms decodes every room under chats. A malformed room is logged and
// left out so one bad record does not blank the whole list.
func decodeRooms(path string, raw []byte) ([]*entity.ChatRoom, error) {
	children, err := decodeChildren(path, raw)
	if err != nil {
		return nil, err
	}

	rooms := make([]*entity.ChatRoom, 0, len(children))
	for _, id := range sortedKeys(children) {
		room, err := decodeRoom(path+"/"+id, id, children[id])
		if err != nil {
			logger.Warn("Skipping room %s: %v", id, err)
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}
