package middleware

import (
	"regexp"

	"github.com/labstack/echo/v4"

	"portfoliochat/internal/usecase"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/response"
)

const VisitorHeader = "X-Visitor-ID"

var visitorIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidVisitorID reports whether id can be used as a visitor key.
func ValidVisitorID(id string) bool {
	return visitorIDPattern.MatchString(id)
}

// VisitorMiddleware identifies anonymous visitors by the id their widget
// generated.
type VisitorMiddleware struct {
	chatUseCase *usecase.ChatUseCase
}

func NewVisitorMiddleware(chatUseCase *usecase.ChatUseCase) *VisitorMiddleware {
	return &VisitorMiddleware{
		chatUseCase: chatUseCase,
	}
}

func (m *VisitorMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		visitorID := c.Request().Header.Get(VisitorHeader)
		if visitorID == "" {
			return response.Error(c, errors.Unauthorized(VisitorHeader+" header is required", nil))
		}
		if !ValidVisitorID(visitorID) {
			return response.Error(c, errors.BadRequest("Invalid visitor id", nil))
		}

		c.Set("visitor_id", visitorID)
		return next(c)
	}
}

// RoomOwner loads the :id room and rejects visitors that do not own it. It
// must run after Identify.
func (m *VisitorMiddleware) RoomOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		visitorID, _ := c.Get("visitor_id").(string)

		room, err := m.chatUseCase.GetVisitorRoom(c.Request().Context(), c.Param("id"), visitorID)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("room", room)
		return next(c)
	}
}
