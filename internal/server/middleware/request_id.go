package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-notify/pkg/ctxval"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

const (
	XRequestID     = "x-request-id"
	XCorrelationID = "x-correlation-id"

	// incoming ids longer than this are replaced
	maxRequestIDLength = 128
)

type requestIDKey struct{}

// GetRequestID returns the id assigned by RequestID, empty before it ran.
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(XRequestID).(string)
	return id
}

// RequestIDFromContext returns the request id carried by ctx. Background
// fan-out keeps it because detached contexts keep their values.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func incomingRequestID(c echo.Context) string {
	h := c.Request().Header
	for _, name := range []string{XRequestID, XCorrelationID} {
		if id := h.Get(name); id != "" && len(id) <= maxRequestIDLength {
			return id
		}
	}
	return ""
}

// RequestID reuses the caller's x-request-id (or x-correlation-id) or
// generates a uuid, then exposes it on the echo context, the request context,
// every log entry of the request and the response header.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := incomingRequestID(c)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			ctx := ctxval.Wrap(c.Request().Context())
			log.AddFields(ctx, "request_id", reqID)
			ctx = context.WithValue(ctx, requestIDKey{}, reqID)
			c.SetRequest(c.Request().WithContext(ctx))

			c.Set(XRequestID, reqID)
			c.Response().Header().Set(XRequestID, reqID)
			return next(c)
		}
	}
}
