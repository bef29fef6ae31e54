package handler

import (
	"github.com/labstack/echo/v4"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/usecase"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/response"
	"portfoliochat/pkg/utils"
)

const defaultRoomPageSize = 20

// AdminHandler serves the admin app: the room list, replies and visitor
// moderation.
type AdminHandler struct {
	chatUseCase       *usecase.ChatUseCase
	presenceUseCase   *usecase.PresenceUseCase
	roomListUseCase   *usecase.RoomListUseCase
	attachmentUseCase *usecase.AttachmentUseCase
	quickReplyUseCase *usecase.QuickReplyUseCase
	adminUseCase      *usecase.AdminUseCase
}

func NewAdminHandler(
	chatUseCase *usecase.ChatUseCase,
	presenceUseCase *usecase.PresenceUseCase,
	roomListUseCase *usecase.RoomListUseCase,
	attachmentUseCase *usecase.AttachmentUseCase,
	quickReplyUseCase *usecase.QuickReplyUseCase,
	adminUseCase *usecase.AdminUseCase,
) *AdminHandler {
	return &AdminHandler{
		chatUseCase:       chatUseCase,
		presenceUseCase:   presenceUseCase,
		roomListUseCase:   roomListUseCase,
		attachmentUseCase: attachmentUseCase,
		quickReplyUseCase: quickReplyUseCase,
		adminUseCase:      adminUseCase,
	}
}

type adminSendMessageRequest struct {
	sendMessageRequest
	QuickReplyID string `json:"quick_reply_id"`
}

type registerDeviceRequest struct {
	FCMToken string `json:"fcm_token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=android ios web"`
}

// ListChats returns every room, most recent first, with the total unread
// count. ?status=open|closed filters the rooms but not the total. ?page and
// ?limit return one page of the filtered list.
func (h *AdminHandler) ListChats(c echo.Context) error {
	status := entity.RoomStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return response.Error(c, errors.BadRequest("Status must be open or closed", nil))
	}

	list, err := h.roomListUseCase.ListRooms(c.Request().Context(), status)
	if err != nil {
		return response.Error(c, err)
	}

	if c.QueryParam("page") != "" || c.QueryParam("limit") != "" {
		list.Rooms = utils.Window(list.Rooms, utils.GetPaginationParams(c, defaultRoomPageSize))
	}

	return response.Success(c, list)
}

func (h *AdminHandler) UnreadCount(c echo.Context) error {
	total, err := h.roomListUseCase.UnreadCount(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"total_unread": total})
}

func (h *AdminHandler) GetMessages(c echo.Context) error {
	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// SendMessage posts as ADMIN. With quick_reply_id the reply's text is sent
// and its usage counted.
func (h *AdminHandler) SendMessage(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req adminSendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if req.QuickReplyID != "" {
		reply, err := h.quickReplyUseCase.Use(c.Request().Context(), req.QuickReplyID)
		if err != nil {
			return response.Error(c, err)
		}
		req.Type = string(entity.MessageText)
		req.Content = reply.Content
	}

	content, err := req.content()
	if err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.Send(c.Request().Context(), usecase.SendMessageInput{
		RoomID:     c.Param("id"),
		SenderType: entity.SenderAdmin,
		SenderID:   uid,
		Content:    content,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *AdminHandler) MarkRead(c echo.Context) error {
	if err := h.chatUseCase.MarkRead(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"chat_id": c.Param("id")})
}

func (h *AdminHandler) SetTyping(c echo.Context) error {
	return setTyping(c, h.presenceUseCase, entity.PartyAdmin)
}

func (h *AdminHandler) SetStatus(c echo.Context) error {
	return setStatus(c, h.presenceUseCase)
}

func (h *AdminHandler) RequestUpload(c echo.Context) error {
	return requestUpload(c, h.attachmentUseCase)
}

func (h *AdminHandler) BlockVisitor(c echo.Context) error {
	return h.setBlocked(c, true)
}

func (h *AdminHandler) UnblockVisitor(c echo.Context) error {
	return h.setBlocked(c, false)
}

func (h *AdminHandler) setBlocked(c echo.Context, blocked bool) error {
	visitor, err := h.adminUseCase.SetVisitorBlocked(c.Request().Context(), c.Param("id"), blocked)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, visitor)
}

// RegisterDevice stores the admin app's push token and marks the admin seen.
func (h *AdminHandler) RegisterDevice(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req registerDeviceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	device, err := h.adminUseCase.RegisterDevice(c.Request().Context(), uid, usecase.RegisterDeviceInput{
		FCMToken: req.FCMToken,
		Platform: req.Platform,
	})
	if err != nil {
		return response.Error(c, err)
	}
	h.adminUseCase.TouchLastSeen(c.Request().Context(), uid)

	return response.Success(c, device)
}
