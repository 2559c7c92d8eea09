// Package httpx holds the JSON request/response helpers shared by every
// module's chi handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so clients can map errors back to their payload.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads the request body into dst and runs struct validation.
// Failures come back as *apperrors.ValidationError.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Invalid("", "malformed request body: %v", err)
	}
	return Validate(dst)
}

// Validate applies `validate` struct tags to v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.Invalid(fe.Field(), "%s", describe(fe))
	}
	return apperrors.Invalid("", "%v", err)
}

// WriteError maps err onto a status code. Unexpected errors are logged and
// hidden behind a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var vErr *apperrors.ValidationError

	switch {
	case errors.As(err, &vErr):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: vErr.Message, Field: vErr.Field})
	case errors.Is(err, apperrors.ErrUnauthenticated):
		WriteJSON(w, http.StatusUnauthorized, ErrorBody{Error: "unauthenticated"})
	case errors.Is(err, apperrors.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorBody{Error: err.Error()})
	default:
		if logger != nil {
			logger.ErrorContext(r.Context(), "Request failed",
				attr.String("method", r.Method),
				attr.String("path", r.URL.Path),
				attr.Error(err),
			)
		}
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: "internal error"})
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit(fe))
	case "max", "lte":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit(fe))
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "uuid", "uuid4":
		return "must be a UUID"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func unit(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		return " items"
	default:
		return ""
	}
}
