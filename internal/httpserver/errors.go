package httpserver

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storecatalog/internal/domain"
	"storecatalog/internal/logger"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// writeError maps a failure to its status. Server-side causes are logged and
// never echoed to the client.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	var (
		vErr   *domain.ValidationError
		fields validator.ValidationErrors
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{Code: "validation_failed", Field: vErr.Field, Message: vErr.Reason}})
	case errors.As(err, &fields) && len(fields) > 0:
		fe := fields[0]
		c.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{Code: "validation_failed", Field: fe.Field(), Message: describeField(fe)}})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: errorDetail{Code: "not_found", Message: "resource not found"}})
	case errors.Is(err, domain.ErrSourceUnavailable):
		log.Error("catalog source failure", "path", c.FullPath(), "request_id", requestIDFrom(c.Request.Context()), "error", err)
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: errorDetail{Code: "unavailable", Message: "catalog temporarily unavailable"}})
	default:
		log.Error("request failed", "path", c.FullPath(), "request_id", requestIDFrom(c.Request.Context()), "error", err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: errorDetail{Code: "internal", Message: "internal error"}})
	}
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "numeric", "number":
		return "must be a number"
	case "boolean":
		return "must be true or false"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

var fieldNamesOnce sync.Once

// registerFieldNames makes validator report form/json names instead of Go
// field names.
func registerFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

func isValidationErr(err error) bool {
	var fields validator.ValidationErrors
	return errors.As(err, &fields)
}
