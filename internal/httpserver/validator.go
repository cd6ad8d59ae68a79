package httpserver

import (
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/transport"
)

// RequestValidator plugs go-playground/validator into echo.Context.Validate.
type RequestValidator struct {
	validator *validator.Validate
}

func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// tags on a Nullable[string] apply to the wrapped value; null validates as ""
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		n, ok := field.Interface().(transport.Nullable[string])
		if !ok || n.Value == nil {
			return ""
		}
		return *n.Value
	}, transport.Nullable[string]{})
	return &RequestValidator{validator: v}
}

func (v *RequestValidator) Validate(i any) error {
	if err := v.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body").SetInternal(err)
	}
	return c.Validate(req)
}
