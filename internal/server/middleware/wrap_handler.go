package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// WrapHandler adapts an RPC handler to echo: the request is bound and
// validated before fn runs and its result is sent in the success envelope.
// Errors are left to the HTTP error handler.
func WrapHandler[Req, Resp any](fn func(echo.Context, Req) (Resp, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req Req
		if err := BindAndValidate(c, &req); err != nil {
			return err
		}

		data, err := fn(c, req)
		if err != nil {
			return err
		}
		if c.Response().Committed {
			return nil
		}
		return c.JSON(http.StatusOK, &Response{
			Success: true,
			Data:    data,
		})
	}
}
