package router

import (
	"github.com/labstack/echo/v4"

	"portfoliochat/internal/adapter/api/handler"
	"portfoliochat/internal/adapter/api/middleware"
	"portfoliochat/internal/infrastructure/ratelimit"
)

type Handlers struct {
	Chat       *handler.ChatHandler
	Admin      *handler.AdminHandler
	QuickReply *handler.QuickReplyHandler
	WebSocket  *handler.WebSocketHandler
	Health     *handler.HealthHandler
}

type Middlewares struct {
	Auth    *middleware.AuthMiddleware
	Admin   *middleware.AdminMiddleware
	Visitor *middleware.VisitorMiddleware
}

func Setup(e *echo.Echo, h Handlers, m Middlewares, limiter *ratelimit.RateLimiter) {
	SetupHealthRouter(e, h.Health)
	SetupChatRouter(e, h.Chat, m.Visitor, limiter)
	SetupAdminRouter(e, h.Admin, h.QuickReply, m.Auth, m.Admin, limiter)
	SetupWebSocketRouter(e, h.WebSocket)
}
