package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

var propertyReasonRe = regexp.MustCompile(`^property ("(?:[^"\\]|\\.)*") is (missing|unsupported)$`)

// Translate flattens a kin-openapi validation error into error entries whose
// schema paths are resolved against root.
func Translate(root *openapi3.Schema, err error) []ErrorEntry {
	var entries []ErrorEntry
	for _, e := range flatten(err) {
		var se *openapi3.SchemaError
		if !errors.As(e, &se) {
			entries = append(entries, ErrorEntry{
				Keyword:    "schema",
				SchemaPath: "#",
				Params:     map[string]any{},
				Message:    e.Error(),
			})
			continue
		}
		entries = append(entries, translateSchemaError(root, se))
	}
	return entries
}

func flatten(err error) []error {
	if me, ok := err.(openapi3.MultiError); ok {
		var out []error
		for _, e := range me {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func translateSchemaError(root *openapi3.Schema, se *openapi3.SchemaError) ErrorEntry {
	ptr := se.JSONPointer()
	entry := ErrorEntry{
		Keyword: se.SchemaField,
		Params:  map[string]any{},
		Message: se.Reason,
	}

	switch se.SchemaField {
	case "required":
		key := propertyFromReason(se.Reason)
		parent := ptr
		if n := len(ptr); n > 0 && ptr[n-1] == key {
			parent = ptr[:n-1]
		} else {
			ptr = append(append([]string(nil), ptr...), key)
		}
		entry.Params["missingProperty"] = key
		entry.PropertyName = key
		entry.DataPath = pointer(ptr)
		entry.SchemaPath = schemaPath(root, parent) + "/required"
		return entry
	case "properties":
		if key := propertyFromReason(se.Reason); key != "" {
			entry.Keyword = "additionalProperties"
			entry.Params["additionalProperty"] = key
			entry.PropertyName = key
			entry.DataPath = pointer(ptr)
			entry.SchemaPath = schemaPath(root, ptr) + "/additionalProperties"
			return entry
		}
	case "nullable":
		entry.Keyword = "type"
	}

	entry.DataPath = pointer(ptr)
	entry.SchemaPath = schemaPath(root, ptr) + "/" + entry.Keyword
	keywordParams(entry.Params, entry.Keyword, se.Schema)
	return entry
}

func keywordParams(params map[string]any, keyword string, s *openapi3.Schema) {
	if s == nil {
		return
	}
	switch keyword {
	case "type":
		params["type"] = s.Type
		if s.Type == "" {
			params["type"] = "null"
		}
	case "format":
		params["format"] = s.Format
	case "pattern":
		params["pattern"] = s.Pattern
	case "enum":
		params["allowedValues"] = s.Enum
	case "minLength":
		params["limit"] = s.MinLength
	case "maxLength":
		if s.MaxLength != nil {
			params["limit"] = *s.MaxLength
		}
	case "minItems":
		params["limit"] = s.MinItems
	case "maxItems":
		if s.MaxItems != nil {
			params["limit"] = *s.MaxItems
		}
	case "minProperties":
		params["limit"] = s.MinProps
	case "maxProperties":
		if s.MaxProps != nil {
			params["limit"] = *s.MaxProps
		}
	case "minimum":
		if s.Min != nil {
			params["limit"] = *s.Min
		}
		params["exclusive"] = s.ExclusiveMin
	case "maximum":
		if s.Max != nil {
			params["limit"] = *s.Max
		}
		params["exclusive"] = s.ExclusiveMax
	case "multipleOf":
		if s.MultipleOf != nil {
			params["multipleOf"] = *s.MultipleOf
		}
	}
}

func propertyFromReason(reason string) string {
	m := propertyReasonRe.FindStringSubmatch(reason)
	if m == nil {
		return ""
	}
	key, err := strconv.Unquote(m[1])
	if err != nil {
		return ""
	}
	return key
}

// schemaPath walks root along the data pointer and returns the matching
// schema location as a fragment ("#/properties/query/properties/bar").
func schemaPath(root *openapi3.Schema, ptr []string) string {
	var b strings.Builder
	b.WriteString("#")
	cur := root
	for _, seg := range ptr {
		if cur == nil {
			b.WriteString("/")
			b.WriteString(escapePointer(seg))
			continue
		}
		if cur.Items != nil {
			if _, err := strconv.Atoi(seg); err == nil {
				b.WriteString("/items")
				cur = cur.Items.Value
				continue
			}
		}
		if ref := cur.Properties[seg]; ref != nil {
			b.WriteString("/properties/")
			b.WriteString(escapePointer(seg))
			cur = ref.Value
			continue
		}
		if ref := cur.AdditionalProperties.Schema; ref != nil {
			b.WriteString("/additionalProperties")
			cur = ref.Value
			continue
		}
		b.WriteString("/properties/")
		b.WriteString(escapePointer(seg))
		cur = nil
	}
	return b.String()
}

func pointer(ptr []string) string {
	if len(ptr) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range ptr {
		b.WriteString("/")
		b.WriteString(escapePointer(seg))
	}
	return b.String()
}

func escapePointer(seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}
