package validation

import (
	"sort"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/getkin/kin-openapi/openapi3"
)

// InputError returns the schema of the body sent with a 400 response. Route
// authors reference it from their own response declarations.
func InputError() *openapi3.Schema {
	entry := openapi3.NewObjectSchema()
	entry.Required = []string{"keyword", "dataPath", "schemaPath", "params"}
	entry.Properties = openapi3.Schemas{
		"keyword":      openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"dataPath":     openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"schemaPath":   openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"params":       openapi3.NewSchemaRef("", openapi3.NewObjectSchema()),
		"propertyName": openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"message":      openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
	}

	s := openapi3.NewObjectSchema().WithoutAdditionalProperties()
	s.Required = []string{"errors", "message"}
	s.Properties = openapi3.Schemas{
		"message": openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"errors":  openapi3.NewSchemaRef("", openapi3.NewArraySchema().WithItems(entry)),
	}
	return s
}

// InputErrorResponse returns the response declaration for a 400 carrying an
// InputError body.
func InputErrorResponse() *openapi3.Response {
	return openapi3.NewResponse().
		WithDescription("Bad Request").
		WithContent(openapi3.NewContentWithJSONSchema(InputError()))
}

var jsonMediaType = contenttype.NewMediaType("application/json")

// IsJSONMediaType reports whether mime is application/json or a +json type.
func IsJSONMediaType(mime string) bool {
	mt := contenttype.NewMediaType(mime)
	if mt.Matches(jsonMediaType) {
		return true
	}
	return strings.EqualFold(mt.Type, "application") && strings.HasSuffix(strings.ToLower(mt.Subtype), "+json")
}

// BodySchema returns the JSON schema declared for a request body. Bodies that
// only declare other media types cannot be validated.
func BodySchema(rb *openapi3.RequestBody) (*openapi3.Schema, error) {
	if rb == nil {
		return nil, nil
	}
	if mt := rb.Content.Get("application/json"); mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
		return mt.Schema.Value, nil
	}
	mimes := make([]string, 0, len(rb.Content))
	for mime := range rb.Content {
		mimes = append(mimes, mime)
	}
	sort.Strings(mimes)
	for _, mime := range mimes {
		mt := rb.Content[mime]
		if !IsJSONMediaType(mime) || mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
			continue
		}
		return mt.Schema.Value, nil
	}
	return nil, &BuildError{Code: NonJSONBody, Message: "cannot validate a non-JSON body"}
}
