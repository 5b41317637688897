// Package log writes through the root logger and enriches every entry with
// the key/values attached to the context by AddFields.
package log

import (
	"context"
	"fmt"
	"os"

	"github.com/nguyentranbao-ct/chat-notify/pkg/ctxval"
	"github.com/nguyentranbao-ct/chat-notify/pkg/logger"
	"go.uber.org/zap"
)

type fieldsKey struct{}

var base = func() *zap.SugaredLogger {
	l, err := logger.Root()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}()

// AddFields attaches key/values to a wrapped context. Contexts that were not
// wrapped with ctxval.Wrap are left untouched.
func AddFields(ctx context.Context, kv ...any) {
	ctxval.Update(ctx, fieldsKey{}, func(prev []any) []any {
		fields := make([]any, 0, len(prev)+len(kv))
		fields = append(fields, prev...)
		return append(fields, kv...)
	})
}

func Fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctxval.Get[fieldsKey, []any](ctx, fieldsKey{})
	return fields
}

func with(ctx context.Context) *zap.SugaredLogger {
	fields := Fields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func Logw(ctx context.Context, level logger.Level, msg string, kv ...any) {
	with(ctx).Logw(level, msg, kv...)
}

func Debugw(ctx context.Context, msg string, kv ...any) { with(ctx).Debugw(msg, kv...) }
func Infow(ctx context.Context, msg string, kv ...any)  { with(ctx).Infow(msg, kv...) }
func Warnw(ctx context.Context, msg string, kv ...any)  { with(ctx).Warnw(msg, kv...) }
func Errorw(ctx context.Context, msg string, kv ...any) { with(ctx).Errorw(msg, kv...) }

func Debugf(ctx context.Context, template string, args ...any) { with(ctx).Debugf(template, args...) }
func Infof(ctx context.Context, template string, args ...any)  { with(ctx).Infof(template, args...) }
func Warnf(ctx context.Context, template string, args ...any)  { with(ctx).Warnf(template, args...) }
func Errorf(ctx context.Context, template string, args ...any) { with(ctx).Errorf(template, args...) }

func Fatal(args ...any) {
	base.Fatal(args...)
}
