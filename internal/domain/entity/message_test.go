package entity

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContentVariants(t *testing.T) {
	tests := []struct {
		name    string
		fields  ContentFields
		want    Content
		wantErr bool
	}{
		{"empty type is text", ContentFields{Content: "hi"}, TextContent{Text: "hi"}, false},
		{"image", ContentFields{Type: MessageImage, URL: "https://x/a.png", Content: "cat"}, ImageContent{URL: "https://x/a.png", Caption: "cat"}, false},
		{"file", ContentFields{Type: MessageFile, URL: "https://x/cv.pdf", FileName: "cv.pdf", FileSize: 12}, FileContent{URL: "https://x/cv.pdf", Name: "cv.pdf", Size: 12}, false},
		{"system", ContentFields{Type: MessageSystem, Content: "welcome"}, SystemContent{Text: "welcome"}, false},
		{"unknown", ContentFields{Type: "VIDEO"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewContent(tt.fields)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentValidate(t *testing.T) {
	assert.Error(t, TextContent{Text: "   "}.Validate())
	assert.Error(t, TextContent{Text: strings.Repeat("a", MaxTextLength+1)}.Validate())
	assert.NoError(t, TextContent{Text: "Hello"}.Validate())
	assert.Error(t, ImageContent{URL: "http://insecure"}.Validate())
	assert.Error(t, FileContent{URL: "https://x/f", Name: ""}.Validate())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "[image] cat", ImageContent{URL: "https://x", Caption: "cat"}.Preview())
	assert.Equal(t, "[file] cv.pdf", FileContent{Name: "cv.pdf"}.Preview())
}

func TestChatMessageJSONFlattensContent(t *testing.T) {
	msg := &ChatMessage{ID: "m1", RoomID: "r1", SenderType: SenderVisitor, Content: TextContent{Text: "Hello"}}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"TEXT"`)
	assert.Contains(t, string(raw), `"content":"Hello"`)

	var back ChatMessage
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, TextContent{Text: "Hello"}, back.Content)
	assert.Equal(t, "r1", back.RoomID)
}

func TestRoomActivityFallsBackToCreatedAt(t *testing.T) {
	room := &ChatRoom{}
	assert.True(t, room.ActivityAt().IsZero())
	assert.Equal(t, "adminTyping", PartyAdmin.TypingField())
	assert.Equal(t, SenderVisitor, PartyVisitor.SenderType())
}
