package middleware

import (
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"portfoliochat/internal/infrastructure/ratelimit"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/response"
)

// RateLimit limits requests per caller for one action. Callers are keyed by
// admin uid, then visitor id, then client IP.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := callerIdentity(c)

			allowed, wait := limiter.Allow(identity, action)
			if !allowed {
				log.Printf("RATE LIMIT: %s exceeded %s (retry in %v)", identity, action, wait)

				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded for %s", action)))
			}

			return next(c)
		}
	}
}

func callerIdentity(c echo.Context) string {
	if uid, ok := c.Get("uid").(string); ok && uid != "" {
		return "admin:" + uid
	}
	if visitorID, ok := c.Get("visitor_id").(string); ok && visitorID != "" {
		return "visitor:" + visitorID
	}
	return "ip:" + c.RealIP()
}
