package router

import (
	"fmt"
	"regexp"

	"github.com/mark3labs/openapiroute/validation"
)

var placeholderRe = regexp.MustCompile(`\{([^{}]+?)\}`)

// TranslatePath converts an OpenAPI path template ("/items/{id}") into a gin
// route pattern ("/items/:id"). Static text is kept as is. A name used twice
// in one template is an error since only one capture could be bound.
func TranslatePath(template string) (string, error) {
	seen := make(map[string]struct{})
	var dup string
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if _, ok := seen[name]; ok && dup == "" {
			dup = name
		}
		seen[name] = struct{}{}
		return ":" + name
	})
	if dup != "" {
		return "", &validation.BuildError{
			Code:    validation.DuplicatePlaceholder,
			Message: fmt.Sprintf("placeholder {%s} appears more than once", dup),
			Path:    template,
		}
	}
	return out, nil
}
