package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
)

// maxBodyBytes caps request bodies; every accepted payload is a few hundred bytes.
const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes and validates the request body into dst.
// On failure it writes a 400 problem and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, r, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), nil)
			return false
		}
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.BadRequest(w, r, "validation error", fieldErrors(verrs))
			return false
		}
		response.BadRequest(w, r, "invalid request", nil)
		return false
	}
	return true
}

func fieldErrors(verrs validator.ValidationErrors) []models.FieldError {
	out := make([]models.FieldError, len(verrs))
	for i, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		code, message := describe(fe)
		out[i] = models.FieldError{Field: field, Message: message, Code: code}
	}
	return out
}

func describe(fe validator.FieldError) (code, message string) {
	switch fe.Tag() {
	case "required":
		return "REQUIRED", "is required"
	case "email":
		return "INVALID_EMAIL", "must be a valid email address"
	case "oneof":
		return "INVALID_ENUM", "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return "TOO_SHORT", "must be at least " + fe.Param() + " characters"
		}
		return "OUT_OF_RANGE", "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "TOO_LONG", "must be at most " + fe.Param() + " characters"
		}
		return "OUT_OF_RANGE", "must be at most " + fe.Param()
	case "gte":
		return "OUT_OF_RANGE", "must be greater than or equal to " + fe.Param()
	case "lte":
		return "OUT_OF_RANGE", "must be less than or equal to " + fe.Param()
	default:
		return "INVALID", "is invalid"
	}
}
