package firebase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"portfoliochat/internal/domain/entity"
)

func TestBuildNewMessageNotification(t *testing.T) {
	room := &entity.ChatRoom{ID: "room-1", VisitorID: "v_abc"}
	msg := &entity.ChatMessage{ID: "m1", Content: entity.TextContent{Text: strings.Repeat("a", 150)}}

	m := BuildNewMessageNotification([]string{"t1", "t2"}, room, msg)

	assert.Equal(t, []string{"t1", "t2"}, m.Tokens)
	assert.Equal(t, 101, utf8.RuneCountInString(m.Notification.Body))
	assert.Equal(t, "room-1", m.Data["chatId"])
	assert.Equal(t, "m1", m.Data["messageId"])
	assert.Equal(t, "high", m.Android.Priority)
}

func TestBuildNewMessageNotificationForImage(t *testing.T) {
	room := &entity.ChatRoom{ID: "room-1", VisitorID: "v_abc"}
	msg := &entity.ChatMessage{ID: "m2", Content: entity.ImageContent{URL: "https://x/y.png"}}

	m := BuildNewMessageNotification([]string{"t1"}, room, msg)

	assert.Equal(t, "[image]", m.Notification.Body)
}
