package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"portfoliochat/internal/usecase"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/response"
)

// AuthMiddleware verifies Firebase ID tokens of the admin app.
type AuthMiddleware struct {
	authClient usecase.FirebaseAuthClient
	adminUIDs  map[string]bool
}

func NewAuthMiddleware(authClient usecase.FirebaseAuthClient, adminUIDs []string) *AuthMiddleware {
	uids := make(map[string]bool, len(adminUIDs))
	for _, uid := range adminUIDs {
		uids[uid] = true
	}
	return &AuthMiddleware{
		authClient: authClient,
		adminUIDs:  uids,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		uid, admin, err := m.VerifyToken(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("uid", uid)
		c.Set("admin", admin)

		return next(c)
	}
}

// VerifyToken returns the token's uid and whether it belongs to an admin,
// either through the admin custom claim or the configured uid list.
func (m *AuthMiddleware) VerifyToken(ctx context.Context, token string) (string, bool, error) {
	if m.authClient == nil {
		return "", false, errors.Unauthorized("Admin authentication is not configured", nil)
	}

	uid, claims, err := m.authClient.VerifyToken(ctx, token)
	if err != nil {
		return "", false, errors.Unauthorized("Invalid or expired token", err)
	}

	admin, _ := claims["admin"].(bool)
	return uid, admin || m.adminUIDs[uid], nil
}
