package router

import (
	"github.com/labstack/echo/v4"

	"portfoliochat/internal/adapter/api/handler"
	"portfoliochat/internal/adapter/api/middleware"
	"portfoliochat/internal/infrastructure/ratelimit"
)

// SetupChatRouter sets up the visitor routes. Every route needs the
// X-Visitor-ID header and every :id route needs the visitor to own the room.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, visitorMiddleware *middleware.VisitorMiddleware, limiter *ratelimit.RateLimiter) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(visitorMiddleware.Identify)
	chatGroup.Use(middleware.RateLimit(limiter, ratelimit.ActionAPI))

	chatGroup.POST("", chatHandler.CreateChat)

	room := chatGroup.Group("/:id", visitorMiddleware.RoomOwner)
	room.GET("", chatHandler.GetChat)
	room.GET("/messages", chatHandler.GetMessages)
	room.POST("/messages", chatHandler.SendMessage)
	room.PUT("/typing", chatHandler.SetTyping)
	room.PUT("/status", chatHandler.SetStatus)
	room.POST("/attachments", chatHandler.RequestUpload)
}
