// Package tmplx renders short notification texts from text/template sources
// supplied through configuration.
package tmplx

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

var (
	ErrParseTemplate  = errors.New("tmplx: parse error")
	ErrRenderTemplate = errors.New("tmplx: render error")
)

type Template struct {
	tmpl *template.Template
}

type ValidateFunc func(*bytes.Buffer) error

type options struct {
	funcs    template.FuncMap
	sample   any
	validate ValidateFunc
}

type Option func(*options)

// WithFunc registers fn under name, replacing a builtin of the same name.
func WithFunc(name string, fn any) Option {
	return func(o *options) {
		o.funcs[name] = fn
	}
}

// WithValidate renders sample at parse time and hands the output to fn, so a
// broken configured template fails on startup instead of on the first send.
func WithValidate(sample any, fn ValidateFunc) Option {
	return func(o *options) {
		o.sample = sample
		o.validate = fn
	}
}

func builtins() template.FuncMap {
	return template.FuncMap{
		"default":  defaultFunc,
		"coalesce": coalesce,
		"truncate": truncate,
		"json":     jsonFunc,
		"jsonGet":  jsonGet,
		"upper":    strings.ToUpper,
		"trim":     strings.TrimSpace,
	}
}

func Parse(name, text string, opts ...Option) (*Template, error) {
	o := &options{funcs: builtins()}
	for _, opt := range opts {
		opt(o)
	}

	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(o.funcs).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseTemplate, err)
	}

	t := &Template{tmpl: tmpl}
	if o.validate != nil {
		buf, err := t.Render(o.sample)
		if err != nil {
			return nil, err
		}
		if err := o.validate(buf); err != nil {
			return nil, fmt.Errorf("validate template %s: %w", name, err)
		}
	}
	return t, nil
}

func MustParse(name, text string, opts ...Option) *Template {
	t, err := Parse(name, text, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Render(data any) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := t.tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderTemplate, err)
	}
	return buf, nil
}

// RenderString renders and trims surrounding whitespace.
func (t *Template) RenderString(data any) (string, error) {
	buf, err := t.Render(data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func defaultFunc(def, value any) any {
	if cast.ToString(value) != "" {
		return value
	}
	return def
}

// coalesce returns the first argument that is not empty once stringified.
func coalesce(values ...any) string {
	for _, v := range values {
		if s := cast.ToString(v); s != "" {
			return s
		}
	}
	return ""
}

// truncate cuts s to at most n runes, appending an ellipsis when cut.
func truncate(n int, s any) string {
	str := cast.ToString(s)
	if n <= 0 || utf8.RuneCountInString(str) <= n {
		return str
	}
	return string([]rune(str)[:n]) + "…"
}

func jsonFunc(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// jsonGet reads path from a raw JSON document, empty when absent.
func jsonGet(path string, raw any) string {
	return gjson.Get(cast.ToString(raw), path).String()
}
