package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"portfoliochat/internal/infrastructure/websocket"
)

// StoreChecker is a cheap read against the chat store.
type StoreChecker interface {
	RoomExists(ctx context.Context, roomID string) (bool, error)
}

type HealthHandler struct {
	store     StoreChecker
	wsManager *websocket.Manager
}

func NewHealthHandler(store StoreChecker, wsManager *websocket.Manager) *HealthHandler {
	return &HealthHandler{
		store:     store,
		wsManager: wsManager,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "Server is running",
		"time":        time.Now().Format(time.RFC3339),
		"connections": h.wsManager.Count(),
	})
}

// CheckStoreHealth performs one read against the chat store.
func (h *HealthHandler) CheckStoreHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.store.RoomExists(ctx, "health-check"); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "Chat store unreachable",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Chat store reachable",
	})
}
