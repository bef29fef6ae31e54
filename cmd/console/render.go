package main

import (
	"fmt"
	"io"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/state"
)

// view prints what changed between two snapshots. AppState delivers
// snapshots one at a time, so view needs no locking.
type view struct {
	out  io.Writer
	self entity.Party

	roomID     string
	seen       int
	typing     bool
	connection entity.ConnectionState
	unread     int
	showUnread bool
}

func newView(out io.Writer, self entity.Party, showUnread bool) *view {
	return &view{out: out, self: self, unread: -1, showUnread: showUnread}
}

func (v *view) render(snap state.Snapshot) {
	if snap.Connection != v.connection {
		v.connection = snap.Connection
		fmt.Fprintf(v.out, "-- %s\n", snap.Connection)
	}

	if v.showUnread && snap.TotalUnread != v.unread {
		v.unread = snap.TotalUnread
		fmt.Fprintf(v.out, "-- %d unread across %d chats\n", snap.TotalUnread, len(snap.Rooms))
	}

	if snap.CurrentRoomID != v.roomID {
		v.roomID = snap.CurrentRoomID
		v.seen = 0
		v.typing = false
	}

	if len(snap.Messages) < v.seen {
		v.seen = 0
	}
	for _, msg := range snap.Messages[v.seen:] {
		fmt.Fprintln(v.out, formatMessage(msg))
	}
	v.seen = len(snap.Messages)

	if snap.CurrentRoom != nil {
		other := entity.PartyAdmin
		if v.self == entity.PartyAdmin {
			other = entity.PartyVisitor
		}
		if typing := snap.CurrentRoom.Typing(other); typing != v.typing {
			v.typing = typing
			if typing {
				fmt.Fprintf(v.out, "-- %s is typing...\n", other)
			}
		}
	}
}

func formatMessage(msg *entity.ChatMessage) string {
	return fmt.Sprintf("[%s] %s: %s", msg.CreatedAt.Local().Format("15:04"), msg.SenderType, msg.Content.Preview())
}

func formatRoom(i int, room *entity.ChatRoom) string {
	line := fmt.Sprintf("%2d) %s  %s  %s", i+1, room.ID, room.VisitorID, room.Status)
	if room.UnreadCount > 0 {
		line += fmt.Sprintf("  (%d unread)", room.UnreadCount)
	}
	if room.LastMessage != "" {
		line += "  " + room.LastMessage
	}
	return line
}
