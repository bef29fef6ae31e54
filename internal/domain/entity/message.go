package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type SenderType string

const (
	SenderVisitor SenderType = "VISITOR"
	SenderAdmin   SenderType = "ADMIN"
	SenderSystem  SenderType = "SYSTEM"
)

func (s SenderType) Valid() bool {
	switch s {
	case SenderVisitor, SenderAdmin, SenderSystem:
		return true
	}
	return false
}

type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageImage  MessageType = "IMAGE"
	MessageFile   MessageType = "FILE"
	MessageEmoji  MessageType = "EMOJI"
	MessageSystem MessageType = "SYSTEM"
)

const MaxTextLength = 2000

// Content is the body of a message. Each variant carries only its own fields.
type Content interface {
	Type() MessageType
	// Preview is the text cached on the room as lastMessage.
	Preview() string
	Validate() error
}

type TextContent struct {
	Text string
}

type ImageContent struct {
	URL     string
	Caption string
}

type FileContent struct {
	URL  string
	Name string
	Size int64
}

type EmojiContent struct {
	Emoji string
}

type SystemContent struct {
	Text string
}

func (TextContent) Type() MessageType   { return MessageText }
func (ImageContent) Type() MessageType  { return MessageImage }
func (FileContent) Type() MessageType   { return MessageFile }
func (EmojiContent) Type() MessageType  { return MessageEmoji }
func (SystemContent) Type() MessageType { return MessageSystem }

func (c TextContent) Preview() string  { return c.Text }
func (c EmojiContent) Preview() string { return c.Emoji }
func (c SystemContent) Preview() string {
	return c.Text
}

func (c ImageContent) Preview() string {
	if c.Caption != "" {
		return "[image] " + c.Caption
	}
	return "[image]"
}

func (c FileContent) Preview() string {
	return "[file] " + c.Name
}

func (c TextContent) Validate() error {
	return validateText(c.Text)
}

func (c SystemContent) Validate() error {
	return validateText(c.Text)
}

func (c EmojiContent) Validate() error {
	if strings.TrimSpace(c.Emoji) == "" {
		return fmt.Errorf("emoji is empty")
	}
	return nil
}

func (c ImageContent) Validate() error {
	return validateURL(c.URL)
}

func (c FileContent) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("file name is empty")
	}
	if c.Size < 0 {
		return fmt.Errorf("file size is negative")
	}
	return validateURL(c.URL)
}

func validateText(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("content is empty")
	}
	if utf8.RuneCountInString(s) > MaxTextLength {
		return fmt.Errorf("content exceeds %d characters", MaxTextLength)
	}
	return nil
}

func validateURL(u string) error {
	if !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("attachment url must use https")
	}
	return nil
}

// ContentFields is the flat wire shape shared by the store records and the
// HTTP payloads.
type ContentFields struct {
	Type     MessageType `json:"type"`
	Content  string      `json:"content,omitempty"`
	URL      string      `json:"url,omitempty"`
	FileName string      `json:"file_name,omitempty"`
	FileSize int64       `json:"file_size,omitempty"`
}

// NewContent builds the variant named by f.Type. An empty type means TEXT.
func NewContent(f ContentFields) (Content, error) {
	switch f.Type {
	case MessageText, "":
		return TextContent{Text: f.Content}, nil
	case MessageImage:
		return ImageContent{URL: f.URL, Caption: f.Content}, nil
	case MessageFile:
		return FileContent{URL: f.URL, Name: f.FileName, Size: f.FileSize}, nil
	case MessageEmoji:
		return EmojiContent{Emoji: f.Content}, nil
	case MessageSystem:
		return SystemContent{Text: f.Content}, nil
	}
	return nil, fmt.Errorf("unknown message type %q", f.Type)
}

// FieldsOf flattens c back into its wire shape.
func FieldsOf(c Content) ContentFields {
	switch v := c.(type) {
	case TextContent:
		return ContentFields{Type: MessageText, Content: v.Text}
	case ImageContent:
		return ContentFields{Type: MessageImage, Content: v.Caption, URL: v.URL}
	case FileContent:
		return ContentFields{Type: MessageFile, URL: v.URL, FileName: v.Name, FileSize: v.Size}
	case EmojiContent:
		return ContentFields{Type: MessageEmoji, Content: v.Emoji}
	case SystemContent:
		return ContentFields{Type: MessageSystem, Content: v.Text}
	}
	return ContentFields{}
}

// ChatMessage is one entry of a room's append-only log. Only IsRead changes
// after creation, and only from false to true.
type ChatMessage struct {
	ID         string
	RoomID     string
	SenderType SenderType
	SenderID   string
	Content    Content
	IsRead     bool
	CreatedAt  time.Time
}

type messageJSON struct {
	ID         string     `json:"id"`
	RoomID     string     `json:"chat_id"`
	SenderType SenderType `json:"sender_type"`
	SenderID   string     `json:"sender_id,omitempty"`
	ContentFields
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *ChatMessage) MarshalJSON() ([]byte, error) {
	out := messageJSON{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderType: m.SenderType,
		SenderID:   m.SenderID,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
	if m.Content != nil {
		out.ContentFields = FieldsOf(m.Content)
	}
	return json.Marshal(out)
}

func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var in messageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	content, err := NewContent(in.ContentFields)
	if err != nil {
		return err
	}
	*m = ChatMessage{
		ID:         in.ID,
		RoomID:     in.RoomID,
		SenderType: in.SenderType,
		SenderID:   in.SenderID,
		Content:    content,
		IsRead:     in.IsRead,
		CreatedAt:  in.CreatedAt,
	}
	return nil
}
