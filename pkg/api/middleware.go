package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/shopworks/foreman/pkg/config"
)

// securityHeaders returns middleware that sets standard security response headers.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		}
	}
}

// requestLogger returns middleware that assigns each request a uuid, echoes
// it in the X-Request-ID response header, and logs one line on completion.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			requestID := uuid.New().String()
			c.Response().Header().Set("X-Request-ID", requestID)

			start := time.Now()
			err := next(c)

			attrs := []any{
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			var httpErr *echo.HTTPError
			switch {
			case errors.As(err, &httpErr):
				attrs = append(attrs, "status", httpErr.Code)
			case err != nil:
				attrs = append(attrs, "status", http.StatusInternalServerError)
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}
			logger.InfoContext(c.Request().Context(), "http request", attrs...)
			return err
		}
	}
}

// corsOrigins resolves the CORS allow-list from the environment variable
// named in the server configuration. Empty or unset means no CORS headers.
func corsOrigins(srv *config.ServerConfig) []string {
	if srv.CORSOriginsEnv == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(os.Getenv(srv.CORSOriginsEnv), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// corsAllowList returns middleware that applies a CORS origin allow-list.
// Requests from origins outside the list pass through without CORS headers;
// the browser enforces the rest. "*" allows every origin.
func corsAllowList(origins []string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			origin := c.Request().Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return next(c)
			}
			if _, ok := allowed[origin]; !ok && !allowAll {
				return next(c)
			}

			h := c.Response().Header()
			if allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if c.Request().Method == http.MethodOptions {
				return c.String(http.StatusNoContent, "")
			}
			return next(c)
		}
	}
}

// bodyLimit caps the request body size. Reads past the cap fail inside the
// handler's Bind with *http.MaxBytesError, which mapPipelineError turns
// into a 413.
func bodyLimit(maxBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if maxBytes > 0 && c.Request().Body != nil {
				c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxBytes)
			}
			return next(c)
		}
	}
}
