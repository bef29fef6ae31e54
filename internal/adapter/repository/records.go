package repository

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

// roomRecord is the stored shape of chats/{id}. Pointer fields are required.
type roomRecord struct {
	VisitorID         *string `json:"visitorId"`
	Status            *string `json:"status"`
	CreatedAt         *int64  `json:"createdAt"`
	LastMessage       string  `json:"lastMessage"`
	LastMessageAt     *int64  `json:"lastMessageAt"`
	LastMessageSender string  `json:"lastMessageSender"`
	UnreadCount       int     `json:"unreadCount"`
	VisitorTyping     bool    `json:"visitorTyping"`
	AdminTyping       bool    `json:"adminTyping"`
	ClosedAt          *int64  `json:"closedAt"`
}

// messageRecord is the stored shape of chats/{id}/messages/{mid}.
type messageRecord struct {
	SenderType *string `json:"senderType"`
	SenderID   string  `json:"senderId,omitempty"`
	Type       string  `json:"type,omitempty"`
	Content    string  `json:"content,omitempty"`
	URL        string  `json:"url,omitempty"`
	FileName   string  `json:"fileName,omitempty"`
	FileSize   int64   `json:"fileSize,omitempty"`
	IsRead     bool    `json:"isRead"`
	CreatedAt  *int64  `json:"createdAt"`
}

type visitorRecord struct {
	Blocked     bool   `json:"blocked"`
	BlockedAt   *int64 `json:"blockedAt"`
	FirstSeenAt *int64 `json:"firstSeenAt"`
}

func newMessageRecord(msg *entity.ChatMessage) map[string]interface{} {
	f := entity.FieldsOf(msg.Content)
	rec := map[string]interface{}{
		"senderType": string(msg.SenderType),
		"type":       string(f.Type),
		"isRead":     msg.IsRead,
		"createdAt":  repository.ServerTimestamp,
	}
	if msg.SenderID != "" {
		rec["senderId"] = msg.SenderID
	}
	if f.Content != "" {
		rec["content"] = f.Content
	}
	if f.URL != "" {
		rec["url"] = f.URL
	}
	if f.FileName != "" {
		rec["fileName"] = f.FileName
	}
	if f.FileSize != 0 {
		rec["fileSize"] = f.FileSize
	}
	return rec
}

func decodeRoom(path, id string, raw json.RawMessage) (*entity.ChatRoom, error) {
	var rec roomRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Decode(path, jsonField(err), err)
	}

	if rec.VisitorID == nil || *rec.VisitorID == "" {
		return nil, errors.Decode(path, "visitorId", nil)
	}
	if rec.Status == nil || !entity.RoomStatus(*rec.Status).Valid() {
		return nil, errors.Decode(path, "status", nil)
	}
	if rec.CreatedAt == nil {
		return nil, errors.Decode(path, "createdAt", nil)
	}
	if rec.UnreadCount < 0 {
		return nil, errors.Decode(path, "unreadCount", fmt.Errorf("negative count %d", rec.UnreadCount))
	}
	sender := entity.SenderType(rec.LastMessageSender)
	if sender != "" && !sender.Valid() {
		return nil, errors.Decode(path, "lastMessageSender", nil)
	}

	room := &entity.ChatRoom{
		ID:                id,
		VisitorID:         *rec.VisitorID,
		Status:            entity.RoomStatus(*rec.Status),
		CreatedAt:         fromMillis(*rec.CreatedAt),
		LastMessage:       rec.LastMessage,
		LastMessageSender: sender,
		UnreadCount:       rec.UnreadCount,
		VisitorTyping:     rec.VisitorTyping,
		AdminTyping:       rec.AdminTyping,
	}
	if rec.LastMessageAt != nil {
		room.LastMessageAt = fromMillis(*rec.LastMessageAt)
	}
	if rec.ClosedAt != nil {
		t := fromMillis(*rec.ClosedAt)
		room.ClosedAt = &t
	}
	return room, nil
}

func decodeMessage(path, roomID, id string, raw json.RawMessage) (*entity.ChatMessage, error) {
	var rec messageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Decode(path, jsonField(err), err)
	}

	if rec.SenderType == nil || !entity.SenderType(*rec.SenderType).Valid() {
		return nil, errors.Decode(path, "senderType", nil)
	}
	if rec.CreatedAt == nil {
		return nil, errors.Decode(path, "createdAt", nil)
	}

	content, err := entity.NewContent(entity.ContentFields{
		Type:     entity.MessageType(rec.Type),
		Content:  rec.Content,
		URL:      rec.URL,
		FileName: rec.FileName,
		FileSize: rec.FileSize,
	})
	if err != nil {
		return nil, errors.Decode(path, "type", err)
	}
	if err := content.Validate(); err != nil {
		return nil, errors.Decode(path, "content", err)
	}

	return &entity.ChatMessage{
		ID:         id,
		RoomID:     roomID,
		SenderType: entity.SenderType(*rec.SenderType),
		SenderID:   rec.SenderID,
		Content:    content,
		IsRead:     rec.IsRead,
		CreatedAt:  fromMillis(*rec.CreatedAt),
	}, nil
}

// decodeMessages decodes the children of a messages node in push key order.
// One malformed message fails the whole list.
func decodeMessages(path, roomID string, raw json.RawMessage) ([]*entity.ChatMessage, error) {
	children, err := decodeChildren(path, raw)
	if err != nil {
		return nil, err
	}

	messages := make([]*entity.ChatMessage, 0, len(children))
	for _, key := range sortedKeys(children) {
		msg, err := decodeMessage(path+"/"+key, roomID, key, children[key])
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// decodeChildren splits a node into its children. A missing node has none.
func decodeChildren(path string, raw json.RawMessage) (map[string]json.RawMessage, error) {
	children := map[string]json.RawMessage{}
	if len(raw) == 0 || string(raw) == "null" {
		return children, nil
	}
	if err := json.Unmarshal(raw, &children); err != nil {
		return nil, errors.Decode(path, "", err)
	}
	return children, nil
}

func decodeVisitor(path, id string, raw json.RawMessage) (*entity.Visitor, error) {
	var rec visitorRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Decode(path, jsonField(err), err)
	}

	v := &entity.Visitor{ID: id, Blocked: rec.Blocked}
	if rec.FirstSeenAt != nil {
		v.FirstSeenAt = fromMillis(*rec.FirstSeenAt)
	}
	if rec.BlockedAt != nil {
		t := fromMillis(*rec.BlockedAt)
		v.BlockedAt = &t
	}
	return v, nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func jsonField(err error) string {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return typeErr.Field
	}
	return ""
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
