package router

import (
	"github.com/labstack/echo/v4"

	"portfoliochat/internal/adapter/api/handler"
	"portfoliochat/internal/adapter/api/middleware"
	"portfoliochat/internal/infrastructure/ratelimit"
)

func SetupAdminRouter(
	e *echo.Echo,
	adminHandler *handler.AdminHandler,
	quickReplyHandler *handler.QuickReplyHandler,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	limiter *ratelimit.RateLimiter,
) {
	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)
	admin.Use(middleware.RateLimit(limiter, ratelimit.ActionAPI))

	// Room list
	admin.GET("/chats", adminHandler.ListChats)
	admin.GET("/unread-count", adminHandler.UnreadCount)

	// Conversation
	admin.GET("/chats/:id/messages", adminHandler.GetMessages)
	admin.POST("/chats/:id/messages", adminHandler.SendMessage)
	admin.PUT("/chats/:id/read", adminHandler.MarkRead)
	admin.PUT("/chats/:id/typing", adminHandler.SetTyping)
	admin.PUT("/chats/:id/status", adminHandler.SetStatus)
	admin.POST("/chats/:id/attachments", adminHandler.RequestUpload)

	// Moderation and devices
	admin.POST("/visitors/:id/block", adminHandler.BlockVisitor)
	admin.DELETE("/visitors/:id/block", adminHandler.UnblockVisitor)
	admin.PUT("/devices", adminHandler.RegisterDevice)

	// Quick replies
	admin.GET("/quick-replies", quickReplyHandler.List)
	admin.POST("/quick-replies", quickReplyHandler.Create)
	admin.DELETE("/quick-replies/:id", quickReplyHandler.Delete)
}
