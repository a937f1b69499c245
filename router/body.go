package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/gin-gonic/gin"

	"github.com/mark3labs/openapiroute/validation"
)

// maxBodyBytes bounds how much of a request body is read for validation.
const maxBodyBytes = 10 << 20

// readJSONBody reads and decodes the request body, then restores it so
// handlers can read it again. present is false for an empty body.
func readJSONBody(c *gin.Context) (value any, present bool, err error) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil, false, nil
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return nil, false, &HTTPError{Status: http.StatusBadRequest, Message: "cannot read request body", Cause: err}
	}
	if len(data) > maxBodyBytes {
		return nil, false, &HTTPError{Status: http.StatusRequestEntityTooLarge, Message: "request body too large"}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}

	if strings.TrimSpace(c.GetHeader("Content-Type")) != "" {
		mt, err := contenttype.GetMediaType(c.Request)
		if err != nil || !validation.IsJSONMediaType(mt.Type+"/"+mt.Subtype) {
			return nil, true, &HTTPError{Status: http.StatusUnsupportedMediaType, Message: "content-type must be application/json"}
		}
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return nil, true, &validation.ValidationError{
			Message: "request body is not valid JSON",
			Errors: []validation.ErrorEntry{{
				Keyword:    "parse",
				SchemaPath: "#",
				Params:     map[string]any{},
				Message:    err.Error(),
			}},
		}
	}
	return value, true, nil
}

func missingBody() *validation.ValidationError {
	return &validation.ValidationError{
		Message: "request body is required",
		Errors: []validation.ErrorEntry{{
			Keyword:      "required",
			SchemaPath:   "#/required",
			Params:       map[string]any{"missingProperty": "body"},
			PropertyName: "body",
			Message:      "request body is required",
		}},
	}
}
