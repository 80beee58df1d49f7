package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	// report fields by their JSON names
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("notfuture", notFutureYear)
	_ = val.RegisterValidation("trimmed_min1", nonBlank)
	return val
}

func notFutureYear(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(time.Now().Year())
}

func nonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct runs tag validation and converts failures into field errors.
func Struct(s any) []apperr.FieldError {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperr.FieldError{{Field: "body", Code: "invalid", Message: err.Error()}}
	}
	out := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, toFieldError(fe))
	}
	return out
}

func toFieldError(fe validator.FieldError) apperr.FieldError {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "trimmed_min1":
		return apperr.FieldError{Field: field, Code: "required", Message: "this field is required"}
	case "max":
		return apperr.FieldError{Field: field, Code: "too_long", Message: fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())}
	case "min":
		return apperr.FieldError{Field: field, Code: "too_short", Message: fmt.Sprintf("ensure this field has at least %s characters", fe.Param())}
	case "gt", "gte":
		return apperr.FieldError{Field: field, Code: "invalid", Message: fmt.Sprintf("must be greater than or equal to %s", fe.Param())}
	case "notfuture":
		return apperr.FieldError{Field: field, Code: "invalid", Message: "publication year cannot be in the future"}
	case "email":
		return apperr.FieldError{Field: field, Code: "invalid", Message: "enter a valid email address"}
	case "oneof":
		return apperr.FieldError{Field: field, Code: "invalid_choice", Message: "must be one of: " + fe.Param()}
	default:
		return apperr.FieldError{Field: field, Code: "invalid", Message: "invalid value"}
	}
}

// DecodeJSON decodes a request body into dst; a decode failure is reported as
// a field error so handlers can answer with a single 400 shape.
func DecodeJSON(body io.Reader, dst any) []apperr.FieldError {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return []apperr.FieldError{{Field: typeErr.Field, Code: "invalid", Message: "expected " + typeErr.Type.String()}}
		case errors.Is(err, io.EOF):
			return []apperr.FieldError{{Field: "body", Code: "required", Message: "request body is empty"}}
		case errors.As(err, &maxErr):
			return []apperr.FieldError{{Field: "body", Code: "too_long", Message: "request body too large"}}
		default:
			return []apperr.FieldError{{Field: "body", Code: "invalid", Message: "invalid JSON"}}
		}
	}
	return nil
}

// ClampLimitOffset parses paging; limit 0 means "no limit".
func ClampLimitOffset(limitRaw, offsetRaw string, max int) (int, int) {
	limit := 0
	if v, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil && v >= 1 {
		limit = min(v, max)
	}
	offset := 0
	if v, err := strconv.Atoi(strings.TrimSpace(offsetRaw)); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
