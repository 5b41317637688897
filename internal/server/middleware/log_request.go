package middleware

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
)

// LogRequestConfig store middleware configuration
type LogRequestConfig struct {
	Logger  Logger
	Skipper Skipper
	// RequestBody and ResponseBody decide per request whether JSON bodies are
	// logged. Both default to true.
	RequestBody  func(c echo.Context) bool
	ResponseBody func(c echo.Context) bool
}

type bodyDumpWriter struct {
	io.Writer
	http.ResponseWriter
}

// LogRequest writes one access log line per RPC call, at a level that follows
// the response status.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	always := func(echo.Context) bool { return true }
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.RequestBody == nil {
		config.RequestBody = always
	}
	if config.ResponseBody == nil {
		config.ResponseBody = always
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			res := c.Response()

			var reqBody json.RawMessage
			logReqBody := config.RequestBody(c) && isJSON(req.Header.Get(echo.HeaderContentType))
			if logReqBody {
				reqBody, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(reqBody))
			}

			var resBuf bytes.Buffer
			res.Writer = &bodyDumpWriter{
				Writer:         io.MultiWriter(res.Writer, &resBuf),
				ResponseWriter: res.Writer,
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := []any{
				"op", path.Base(req.URL.Path),
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", GetRequestID(c),
				"real_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
			}
			if app := req.Header.Get("x-app"); app != "" {
				args = append(args, "app", app)
			}
			if uid := GetUserID(c); uid != "" {
				args = append(args, "uid", uid)
			}

			resJSON := isJSON(res.Header().Get(echo.HeaderContentType))
			if resJSON {
				if code := gjson.GetBytes(resBuf.Bytes(), "error_code"); code.Exists() {
					args = append(args, "error_code", code.String())
				}
			}
			if logReqBody && len(reqBody) > 0 {
				args = append(args, "request_body", reqBody)
			}
			if resJSON && config.ResponseBody(c) && resBuf.Len() > 0 {
				args = append(args, "response_body", json.RawMessage(resBuf.Bytes()))
			}

			switch {
			case res.Status >= http.StatusInternalServerError:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw("", args...)
			case res.Status >= http.StatusBadRequest:
				config.Logger.Warnw("", args...)
			default:
				config.Logger.Infow("", args...)
			}

			return err
		}
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, echo.MIMEApplicationJSON)
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *bodyDumpWriter) Flush() {
	w.ResponseWriter.(http.Flusher).Flush()
}

func (w *bodyDumpWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}
