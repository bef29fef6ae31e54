package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"portfoliochat/internal/adapter/api/middleware"
	ws "portfoliochat/internal/infrastructure/websocket"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/response"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	upgrader       gorillaws.Upgrader
}

// NewWebSocketHandler accepts every origin when allowedOrigins is empty.
func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(origins) == 0 || origins[r.Header.Get("Origin")]
			},
		},
	}
}

// HandleWebSocket authenticates before upgrading: admins pass ?token=<ID
// token>, visitors pass ?visitor_id=<id>.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	identity, role, err := h.identify(c)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already replied.
		return nil
	}

	// The request context ends when this handler returns.
	client := ws.NewClient(context.WithoutCancel(c.Request().Context()), identity, role, conn)
	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}

func (h *WebSocketHandler) identify(c echo.Context) (string, ws.Role, error) {
	if token := c.QueryParam("token"); token != "" {
		uid, admin, err := h.authMiddleware.VerifyToken(c.Request().Context(), token)
		if err != nil {
			return "", "", err
		}
		if !admin {
			return "", "", errors.Forbidden("Admin privileges required", nil)
		}
		return uid, ws.RoleAdmin, nil
	}

	visitorID := c.QueryParam("visitor_id")
	if visitorID == "" {
		return "", "", errors.Unauthorized("token or visitor_id is required", nil)
	}
	if !middleware.ValidVisitorID(visitorID) {
		return "", "", errors.BadRequest("Invalid visitor id", nil)
	}
	return visitorID, ws.RoleVisitor, nil
}
