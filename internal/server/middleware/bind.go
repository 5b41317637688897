package middleware

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/cstockton/go-conv"
	"github.com/labstack/echo/v4"
)

// BindAndValidate fills req from the JSON body, then from the request headers
// (`header:"<name>"`) and the authenticated identity (`auth:"uid"`), and
// validates it. Identity fields are bound last so a body can never set them.
// An invalid request is answered with 400.
func BindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := bindHeader(c.Request().Header, req); err != nil {
		return err
	}
	if err := bindAuth(c, req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// GetUserID returns the uid set by the auth middleware.
func GetUserID(c echo.Context) string {
	uid, _ := c.Get(ContextKeyUID).(string)
	return uid
}

func bindAuth(c echo.Context, dst any) error {
	return bindTagged(dst, "auth", func(name string) (any, error) {
		if name != "uid" {
			return nil, fmt.Errorf("binding auth field %s is not supported", name)
		}
		return GetUserID(c), nil
	})
}

func bindHeader(header http.Header, dst any) error {
	return bindTagged(dst, "header", func(name string) (any, error) {
		return header.Get(name), nil
	})
}

// bindTagged sets every field of the struct dst points to that carries tag,
// converting the looked up value to the field's type.
func bindTagged(dst any, tag string, lookup func(name string) (any, error)) error {
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind %s: want pointer to struct, got %T", tag, dst)
	}

	v := ptr.Elem()
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		name := sf.Tag.Get(tag)
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}

		value, err := lookup(name)
		if err != nil {
			return err
		}
		if err := conv.Infer(v.Field(i), value); err != nil {
			return fmt.Errorf("cannot parse %s.%s as %s from: %#v / %s",
				t.Name(), sf.Name, sf.Type, value, err)
		}
	}
	return nil
}
