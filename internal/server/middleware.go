package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/huangsam/outlier/internal/metrics"
)

// recoverPanic turns a handler panic into a 500 response.
func recoverPanic() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					log.Error().Err(perr).Bytes("stack", debug.Stack()).Msg("panic in handler")
					err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
				}
			}()
			return next(c)
		}
	}
}

// requestLogging logs each request and records it with rec.
func requestLogging(rec *metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err) // sets the final status for unmatched routes and echo errors
			}
			latency := time.Since(start)

			req := c.Request()
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			rec.ObserveRequest(route, req.Method, status, latency)

			event := log.Debug()
			if status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("latency", latency).
				Msg("http request")
			return nil
		}
	}
}

// corsOrigins allows the listed origins on /api routes. "*" allows any origin.
func corsOrigins(origins []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" || !strings.HasPrefix(req.URL.Path, "/api/") {
				return next(c)
			}
			if !slices.Contains(origins, "*") && !slices.Contains(origins, origin) {
				return next(c)
			}

			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, strings.Join([]string{http.MethodGet, http.MethodOptions}, ", "))
			h.Set(echo.HeaderAccessControlAllowHeaders, strings.Join([]string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept}, ", "))

			if req.Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
