// Package validation wraps go-playground/validator for the REST request
// types, translating tag failures into a field -> message map suitable for a
// 400 response body.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a configured validator. decimal.Decimal fields are registered
// as float64 so numeric tags (gte, gt) apply to them.
func New() *validatorv10.Validate {
	v := validatorv10.New(validatorv10.WithRequiredStructEnabled())

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// DecodeAndValidate decodes the JSON body into out and runs tag validation.
// Either failure is returned as a RequestError carrying field details.
func DecodeAndValidate(body io.Reader, out any, v *validatorv10.Validate) *RequestError {
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return &RequestError{
			Message: "invalid request body",
			Fields:  map[string]string{"body": err.Error()},
		}
	}

	if err := v.Struct(out); err != nil {
		return &RequestError{
			Message: "validation failed",
			Fields:  errorsToMap(err),
		}
	}

	return nil
}

// RequestError describes a malformed or invalid request.
type RequestError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return e.Message
}

func errorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
		return out
	}
	out["error"] = err.Error()
	return out
}
