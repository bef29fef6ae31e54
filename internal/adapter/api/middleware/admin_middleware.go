package middleware

import (
	"github.com/labstack/echo/v4"

	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/response"
)

type AdminMiddleware struct{}

func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

// AdminOnly must run after AuthMiddleware.Authenticate.
func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("uid").(string); !ok {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if admin, _ := c.Get("admin").(bool); !admin {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}

		return next(c)
	}
}
