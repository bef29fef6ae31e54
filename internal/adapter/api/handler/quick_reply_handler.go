package handler

import (
	"github.com/labstack/echo/v4"

	"portfoliochat/internal/usecase"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/response"
)

type QuickReplyHandler struct {
	quickReplyUseCase *usecase.QuickReplyUseCase
}

func NewQuickReplyHandler(quickReplyUseCase *usecase.QuickReplyUseCase) *QuickReplyHandler {
	return &QuickReplyHandler{
		quickReplyUseCase: quickReplyUseCase,
	}
}

type createQuickReplyRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required,max=2000"`
	Emoji   string `json:"emoji" validate:"max=16"`
}

func (h *QuickReplyHandler) List(c echo.Context) error {
	replies, err := h.quickReplyUseCase.List(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, replies)
}

func (h *QuickReplyHandler) Create(c echo.Context) error {
	var req createQuickReplyRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	reply, err := h.quickReplyUseCase.Create(c.Request().Context(), usecase.CreateQuickReplyInput{
		Title:   req.Title,
		Content: req.Content,
		Emoji:   req.Emoji,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, reply)
}

func (h *QuickReplyHandler) Delete(c echo.Context) error {
	if err := h.quickReplyUseCase.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"id": c.Param("id")})
}
