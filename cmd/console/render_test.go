package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/state"
)

func message(sender entity.SenderType, text string) *entity.ChatMessage {
	return &entity.ChatMessage{
		SenderType: sender,
		Content:    entity.TextContent{Text: text},
		CreatedAt:  time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local),
	}
}

func TestViewPrintsOnlyNewMessages(t *testing.T) {
	var out bytes.Buffer
	v := newView(&out, entity.PartyVisitor, false)

	snap := state.Snapshot{
		CurrentRoomID: "room-1",
		Connection:    entity.ConnectionLive,
		Messages:      []*entity.ChatMessage{message(entity.SenderSystem, "Welcome")},
	}
	v.render(snap)
	assert.Equal(t, "-- live\n[10:30] SYSTEM: Welcome\n", out.String())

	out.Reset()
	snap.Messages = append(snap.Messages, message(entity.SenderVisitor, "hi"))
	snap.CurrentRoom = &entity.ChatRoom{ID: "room-1", AdminTyping: true}
	v.render(snap)
	assert.Equal(t, "[10:30] VISITOR: hi\n-- admin is typing...\n", out.String())

	out.Reset()
	v.render(snap)
	assert.Empty(t, out.String())
}

func TestViewRestartsOnRoomChange(t *testing.T) {
	var out bytes.Buffer
	v := newView(&out, entity.PartyAdmin, true)

	v.render(state.Snapshot{
		CurrentRoomID: "room-1",
		Messages:      []*entity.ChatMessage{message(entity.SenderVisitor, "one"), message(entity.SenderVisitor, "two")},
	})

	out.Reset()
	v.render(state.Snapshot{
		CurrentRoomID: "room-2",
		Messages:      []*entity.ChatMessage{message(entity.SenderVisitor, "other")},
	})
	assert.Equal(t, "[10:30] VISITOR: other\n", out.String())
}

func TestViewReportsUnreadChanges(t *testing.T) {
	var out bytes.Buffer
	v := newView(&out, entity.PartyAdmin, true)

	rooms := []*entity.ChatRoom{{ID: "a", UnreadCount: 2}, {ID: "b"}}
	v.render(state.Snapshot{Rooms: rooms, TotalUnread: 2})
	assert.Contains(t, out.String(), "-- 2 unread across 2 chats")

	assert.Equal(t, " 1) a  v_x  open  (2 unread)  hello",
		formatRoom(0, &entity.ChatRoom{ID: "a", VisitorID: "v_x", Status: entity.RoomOpen, UnreadCount: 2, LastMessage: "hello"}))
}
