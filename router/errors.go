package router

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mark3labs/openapiroute/validation"
)

// HTTPError rejects a request with a status other than 400, e.g. an
// unsupported media type.
type HTTPError struct {
	Status  int
	Message string
	Cause   error
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error   { return e.Cause }
func (e *HTTPError) StatusCode() int { return e.Status }

type errorBody struct {
	Message string `json:"message"`
}

// renderErrors writes the last error recorded on the context once the rest of
// the chain has run. Validation errors become 400 InputError bodies; errors
// with a StatusCode keep it; anything else is a 500.
func renderErrors(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			c.JSON(ve.StatusCode(), ve)
			return
		}
		var he *HTTPError
		if errors.As(err, &he) {
			c.JSON(he.Status, errorBody{Message: he.Message})
			return
		}
		log.ErrorContext(logContext(c), "handler.error", slog.String("err", err.Error()))
		c.JSON(http.StatusInternalServerError, errorBody{Message: http.StatusText(http.StatusInternalServerError)})
	}
}
