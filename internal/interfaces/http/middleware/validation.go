package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/stockledger/backend/internal/interfaces/http/dto"
)

// SetupValidator configures the binding validator to report field names
// from JSON/form tags instead of Go struct field names.
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// FormatValidationErrors turns binding failures into a per-field error
// response. Non-validator errors (malformed JSON) fall back to the raw
// message.
func FormatValidationErrors(err error, requestID string) dto.Response {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		details := make([]dto.ValidationDetail, 0, len(validationErrors))
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	}
	return dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, err.Error(), requestID)
}

// HandleValidationError writes the 400 response for a binding failure
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", e.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", e.Param())
	case "uuid":
		return "Must be a valid UUID"
	default:
		return fmt.Sprintf("Failed validation rule %q", e.Tag())
	}
}
