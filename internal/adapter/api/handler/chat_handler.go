package handler

import (
	"github.com/labstack/echo/v4"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/usecase"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/response"
)

// ChatHandler serves the visitor side of a conversation.
type ChatHandler struct {
	chatUseCase       *usecase.ChatUseCase
	presenceUseCase   *usecase.PresenceUseCase
	attachmentUseCase *usecase.AttachmentUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, presenceUseCase *usecase.PresenceUseCase, attachmentUseCase *usecase.AttachmentUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase:       chatUseCase,
		presenceUseCase:   presenceUseCase,
		attachmentUseCase: attachmentUseCase,
	}
}

type sendMessageRequest struct {
	Type     string `json:"type" validate:"omitempty,oneof=TEXT IMAGE FILE EMOJI"`
	Content  string `json:"content" validate:"max=2000"`
	URL      string `json:"url" validate:"omitempty,https_url"`
	FileName string `json:"file_name" validate:"max=255"`
	FileSize int64  `json:"file_size" validate:"gte=0"`
}

func (r sendMessageRequest) content() (entity.Content, error) {
	content, err := entity.NewContent(entity.ContentFields{
		Type:     entity.MessageType(r.Type),
		Content:  r.Content,
		URL:      r.URL,
		FileName: r.FileName,
		FileSize: r.FileSize,
	})
	if err != nil {
		return nil, errors.BadRequest(err.Error(), err)
	}
	return content, nil
}

type typingRequest struct {
	Typing bool `json:"typing"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=open closed"`
}

type uploadRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
	Size        int64  `json:"size" validate:"required,gt=0"`
}

// CreateChat opens a new room for the calling visitor.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	visitorID := c.Get("visitor_id").(string)

	room, err := h.chatUseCase.CreateRoom(c.Request().Context(), visitorID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, room)
}

// GetChat returns the room loaded by the ownership check. A 404 here tells
// the widget its cached room id is stale.
func (h *ChatHandler) GetChat(c echo.Context) error {
	return response.Success(c, c.Get("room").(*entity.ChatRoom))
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	visitorID := c.Get("visitor_id").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	content, err := req.content()
	if err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.Send(c.Request().Context(), usecase.SendMessageInput{
		RoomID:     c.Param("id"),
		SenderType: entity.SenderVisitor,
		SenderID:   visitorID,
		Content:    content,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) SetTyping(c echo.Context) error {
	return setTyping(c, h.presenceUseCase, entity.PartyVisitor)
}

func (h *ChatHandler) SetStatus(c echo.Context) error {
	return setStatus(c, h.presenceUseCase)
}

func (h *ChatHandler) RequestUpload(c echo.Context) error {
	return requestUpload(c, h.attachmentUseCase)
}

func setTyping(c echo.Context, presenceUseCase *usecase.PresenceUseCase, party entity.Party) error {
	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := presenceUseCase.SetTyping(c.Request().Context(), c.Param("id"), party, req.Typing); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, req)
}

func setStatus(c echo.Context, presenceUseCase *usecase.PresenceUseCase) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := presenceUseCase.SetRoomStatus(c.Request().Context(), c.Param("id"), entity.RoomStatus(req.Status)); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, req)
}

func requestUpload(c echo.Context, attachmentUseCase *usecase.AttachmentUseCase) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ticket, err := attachmentUseCase.RequestUpload(c.Request().Context(), usecase.RequestUploadInput{
		RoomID:      c.Param("id"),
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, ticket)
}
