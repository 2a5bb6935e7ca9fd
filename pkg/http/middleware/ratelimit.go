package middleware

import (
	"github.com/labstack/echo/v4"
)

// Allower decides whether a client key may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects requests from clients over their budget with 429. Requests
// whose path is not matched by any route are ignored.
func RateLimit(l Allower, onReject func(c echo.Context) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "" || l.Allow(c.RealIP()) {
				return next(c)
			}
			return onReject(c)
		}
	}
}
