package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

func runRequestID(t *testing.T, header http.Header) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sendMessage", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	err := RequestID()(func(c echo.Context) error {
		ctx := c.Request().Context()
		seen = RequestIDFromContext(ctx)
		assert.Equal(t, seen, GetRequestID(c))
		assert.Contains(t, log.Fields(ctx), seen)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	return rec, seen
}

func TestRequestID(t *testing.T) {
	t.Run("reuses incoming id", func(t *testing.T) {
		h := http.Header{}
		h.Set(XRequestID, "custom-request-id")
		rec, id := runRequestID(t, h)
		assert.Equal(t, "custom-request-id", id)
		assert.Equal(t, "custom-request-id", rec.Header().Get(XRequestID))
	})

	t.Run("falls back to correlation id", func(t *testing.T) {
		h := http.Header{}
		h.Set(XCorrelationID, "corr-1")
		_, id := runRequestID(t, h)
		assert.Equal(t, "corr-1", id)
	})

	t.Run("generates a uuid", func(t *testing.T) {
		rec, id := runRequestID(t, http.Header{})
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, rec.Header().Get(XRequestID))
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		h := http.Header{}
		h.Set(XRequestID, strings.Repeat("x", maxRequestIDLength+1))
		_, id := runRequestID(t, h)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	})
}
