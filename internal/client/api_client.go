package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/pkg/errors"
)

const visitorHeader = "X-Visitor-ID"

// Client calls the chat API. A zero token means visitor calls only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	visitorID  string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken authenticates admin calls with a Firebase ID token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AsVisitor returns a copy of the client that sends the visitor header.
func (c *Client) AsVisitor(visitorID string) *Client {
	cp := *c
	cp.visitorID = visitorID
	return &cp
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type messagePayload struct {
	entity.ContentFields
	QuickReplyID string `json:"quick_reply_id,omitempty"`
}

// CreateRoom opens a room for the visitor and returns its id.
func (c *Client) CreateRoom(ctx context.Context, visitorID string) (string, error) {
	var room entity.ChatRoom
	if err := c.AsVisitor(visitorID).do(ctx, http.MethodPost, "/v1/chats", nil, &room); err != nil {
		return "", err
	}
	return room.ID, nil
}

// RoomExists reports false only when the server says the room is gone or is
// not the visitor's. Any other failure is returned as an error.
func (c *Client) RoomExists(ctx context.Context, visitorID, roomID string) (bool, error) {
	err := c.AsVisitor(visitorID).do(ctx, http.MethodGet, "/v1/chats/"+url.PathEscape(roomID), nil, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, "NOT_FOUND"), errors.Is(err, "FORBIDDEN"):
		return false, nil
	}
	return false, err
}

func (c *Client) GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	if err := c.do(ctx, http.MethodGet, "/v1/chats/"+url.PathEscape(roomID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) ListMessages(ctx context.Context, roomID string) ([]*entity.ChatMessage, error) {
	var messages []*entity.ChatMessage
	err := c.do(ctx, http.MethodGet, c.roomPath(roomID)+"/messages", nil, &messages)
	return messages, err
}

func (c *Client) SendMessage(ctx context.Context, roomID string, content entity.Content) (*entity.ChatMessage, error) {
	return c.sendMessage(ctx, roomID, messagePayload{ContentFields: entity.FieldsOf(content)})
}

// SendQuickReply sends a stored quick reply as the admin.
func (c *Client) SendQuickReply(ctx context.Context, roomID, quickReplyID string) (*entity.ChatMessage, error) {
	return c.sendMessage(ctx, roomID, messagePayload{QuickReplyID: quickReplyID})
}

func (c *Client) sendMessage(ctx context.Context, roomID string, payload messagePayload) (*entity.ChatMessage, error) {
	var msg entity.ChatMessage
	if err := c.do(ctx, http.MethodPost, c.roomPath(roomID)+"/messages", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) SetTyping(ctx context.Context, roomID string, typing bool) error {
	return c.do(ctx, http.MethodPut, c.roomPath(roomID)+"/typing", map[string]bool{"typing": typing}, nil)
}

func (c *Client) SetStatus(ctx context.Context, roomID string, status entity.RoomStatus) error {
	return c.do(ctx, http.MethodPut, c.roomPath(roomID)+"/status", map[string]string{"status": string(status)}, nil)
}

func (c *Client) RequestUpload(ctx context.Context, roomID, fileName, contentType string, size int64) (*entity.UploadTicket, error) {
	body := map[string]interface{}{"file_name": fileName, "content_type": contentType, "size": size}
	var ticket entity.UploadTicket
	if err := c.do(ctx, http.MethodPost, c.roomPath(roomID)+"/attachments", body, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (c *Client) ListRooms(ctx context.Context, status entity.RoomStatus) (*entity.RoomList, error) {
	path := "/v1/admin/chats"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var list entity.RoomList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		TotalUnread int `json:"total_unread"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/admin/unread-count", nil, &out)
	return out.TotalUnread, err
}

func (c *Client) MarkRead(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodPut, "/v1/admin/chats/"+url.PathEscape(roomID)+"/read", nil, nil)
}

func (c *Client) ListQuickReplies(ctx context.Context) ([]*entity.QuickReply, error) {
	var replies []*entity.QuickReply
	err := c.do(ctx, http.MethodGet, "/v1/admin/quick-replies", nil, &replies)
	return replies, err
}

func (c *Client) SetVisitorBlocked(ctx context.Context, visitorID string, blocked bool) error {
	method := http.MethodPost
	if !blocked {
		method = http.MethodDelete
	}
	return c.do(ctx, method, "/v1/admin/visitors/"+url.PathEscape(visitorID)+"/block", nil, nil)
}

// roomPath picks the admin or visitor route for a room.
func (c *Client) roomPath(roomID string) string {
	if c.token != "" {
		return "/v1/admin/chats/" + url.PathEscape(roomID)
	}
	return "/v1/chats/" + url.PathEscape(roomID)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.visitorID != "" {
		req.Header.Set(visitorHeader, c.visitorID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Unavailable("Chat server unreachable", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.New("BAD_RESPONSE", fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode), http.StatusBadGateway, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		if env.Error != nil {
			return errors.New(env.Error.Code, env.Error.Message, resp.StatusCode, nil)
		}
		return errors.New("BAD_RESPONSE", fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode), resp.StatusCode, nil)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.New("BAD_RESPONSE", "Unexpected response body", http.StatusBadGateway, err)
		}
	}
	return nil
}
