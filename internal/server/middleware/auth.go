package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

// ContextKeyUID holds the authenticated user id on the echo context.
const ContextKeyUID = "uid"

// TokenVerifier resolves a bearer token to the uid it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// BearerAuth rejects requests without a valid bearer token before they reach
// any handler.
func BearerAuth(verifier TokenVerifier, skipper Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthenticated("missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				return unauthenticated("invalid authorization header format")
			}

			ctx := c.Request().Context()
			uid, err := verifier.Verify(ctx, tokenString)
			if err != nil {
				log.Debugw(ctx, "token rejected", "error", err)
				return unauthenticated("invalid token")
			}

			c.Set(ContextKeyUID, uid)
			log.AddFields(ctx, "uid", uid)
			return next(c)
		}
	}
}

func unauthenticated(msg string) *ResponseError {
	return &ResponseError{
		Status:       http.StatusUnauthorized,
		Err:          models.ErrUnauthenticated,
		ErrorCode:    models.ReasonUnauthenticated,
		ErrorMessage: msg,
	}
}
