package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

var corsAllowHeaders = strings.Join([]string{
	echo.HeaderAuthorization,
	echo.HeaderContentType,
	XRequestID,
	"x-app",
}, ", ")

// CORS echoes back origins matching pattern and answers preflight requests
// for the POST-only RPC surface.
func CORS(pattern *regexp.Regexp) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			header.Add(echo.HeaderVary, echo.HeaderOrigin)

			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" || !pattern.MatchString(origin) {
				return next(c)
			}
			header.Set(echo.HeaderAccessControlAllowOrigin, origin)
			header.Set(echo.HeaderAccessControlExposeHeaders, XRequestID)

			if c.Request().Method != http.MethodOptions {
				return next(c)
			}
			header.Set(echo.HeaderAccessControlAllowMethods, "POST, GET, OPTIONS")
			header.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			header.Set(echo.HeaderAccessControlMaxAge, "600")
			return c.NoContent(http.StatusNoContent)
		}
	}
}
