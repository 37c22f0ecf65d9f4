package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"chat-gateway/internal/config"
	"chat-gateway/internal/metrics"
)

// corsHeaders stamps the fixed CORS headers on every response, error
// responses included.
func corsHeaders(cfg config.CORSConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			header.Set(echo.HeaderAccessControlAllowOrigin, cfg.AllowOrigin)
			header.Set(echo.HeaderAccessControlAllowHeaders, cfg.AllowHeaders)
			header.Set(echo.HeaderAccessControlAllowMethods, cfg.AllowMethods)
			return next(c)
		}
	}
}

func handlePreflight(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// requireRole rejects requests whose bearer token lacks the configured role.
// It is a no-op when auth is disabled.
func (s *Server) requireRole(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.guard == nil {
			return next(c)
		}
		if !s.guard.Authorize(c.Request().Header.Get(echo.HeaderAuthorization)) {
			metrics.AuthDeniedTotal.Inc()
			return requestError{
				Status:  http.StatusForbidden,
				Message: fmt.Sprintf("Forbidden: missing %s role", s.guard.RequiredRole),
			}
		}
		return next(c)
	}
}

// redactQuery drops query strings from logged URIs.
func redactQuery(uri string) string {
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		return uri[:idx]
	}
	return uri
}
