package validation

import (
	"fmt"
	"net/http"
	"strings"
)

// BuildErrorCode categorizes route build failures.
type BuildErrorCode string

const (
	UnknownLocation      BuildErrorCode = "UnknownLocation"
	NonJSONBody          BuildErrorCode = "NonJSONBody"
	InvalidSchema        BuildErrorCode = "InvalidSchema"
	MissingBadRequest    BuildErrorCode = "MissingBadRequest"
	MissingHandler       BuildErrorCode = "MissingHandler"
	DuplicatePlaceholder BuildErrorCode = "DuplicatePlaceholder"
	RouteConflict        BuildErrorCode = "RouteConflict"
)

// BuildError is a configuration error raised while assembling routes. It is
// never recovered at request time.
type BuildError struct {
	Code        BuildErrorCode
	Message     string
	Method      string
	Path        string
	JSONPointer string // e.g. "#/paths/~1foo/get/parameters"
	Cause       error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	if e.Method != "" || e.Path != "" {
		b.WriteString(strings.TrimSpace(e.Method + " " + e.Path))
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *BuildError) Unwrap() error { return e.Cause }

// Is matches another *BuildError by code so callers can write
// errors.Is(err, &BuildError{Code: MissingBadRequest}).
func (e *BuildError) Is(target error) bool {
	t, ok := target.(*BuildError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ErrorEntry describes one violation. The JSON shape is the InputError item.
type ErrorEntry struct {
	Keyword      string         `json:"keyword"`
	DataPath     string         `json:"dataPath"`
	SchemaPath   string         `json:"schemaPath"`
	Params       map[string]any `json:"params"`
	PropertyName string         `json:"propertyName,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// ValidationError is returned when request data does not conform to its
// compiled schema. It is rendered as a 400 response.
type ValidationError struct {
	Message string       `json:"message"`
	Errors  []ErrorEntry `json:"errors"`
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s %s", entry.DataPath, entry.Message))
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

// StatusCode reports the HTTP status a ValidationError maps to.
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// WithMessage returns a copy of e carrying msg.
func (e *ValidationError) WithMessage(msg string) *ValidationError {
	out := *e
	out.Message = msg
	return &out
}
