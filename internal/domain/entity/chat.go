package entity

import "time"

type RoomStatus string

const (
	RoomOpen   RoomStatus = "open"
	RoomClosed RoomStatus = "closed"
)

func (s RoomStatus) Valid() bool {
	return s == RoomOpen || s == RoomClosed
}

// Party is the side of a conversation that owns a typing flag.
type Party string

const (
	PartyVisitor Party = "visitor"
	PartyAdmin   Party = "admin"
)

func (p Party) Valid() bool {
	return p == PartyVisitor || p == PartyAdmin
}

// TypingField is the room record field holding this party's typing flag.
func (p Party) TypingField() string {
	if p == PartyAdmin {
		return "adminTyping"
	}
	return "visitorTyping"
}

func (p Party) SenderType() SenderType {
	if p == PartyAdmin {
		return SenderAdmin
	}
	return SenderVisitor
}

// ChatRoom is one visitor's conversation thread. LastMessage, LastMessageAt
// and UnreadCount are denormalized from the message log.
type ChatRoom struct {
	ID                string     `json:"id"`
	VisitorID         string     `json:"visitor_id"`
	Status            RoomStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	LastMessage       string     `json:"last_message,omitempty"`
	LastMessageAt     time.Time  `json:"last_message_at,omitempty"`
	LastMessageSender SenderType `json:"last_message_sender,omitempty"`
	UnreadCount       int        `json:"unread_count"`
	VisitorTyping     bool       `json:"visitor_typing"`
	AdminTyping       bool       `json:"admin_typing"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
}

// ActivityAt is the recency key of the admin room list.
func (r *ChatRoom) ActivityAt() time.Time {
	if !r.LastMessageAt.IsZero() {
		return r.LastMessageAt
	}
	return r.CreatedAt
}

func (r *ChatRoom) Typing(p Party) bool {
	if p == PartyAdmin {
		return r.AdminTyping
	}
	return r.VisitorTyping
}

// RoomList is one snapshot of the admin room list.
type RoomList struct {
	Rooms       []*ChatRoom `json:"rooms"`
	TotalUnread int         `json:"total_unread"`
}
