package validation

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cast"
)

// Coerce returns a copy of value with primitives converted to the types the
// schema declares. Values that cannot be converted are left as they are so the
// validator reports them. The input is never modified.
func Coerce(schema *openapi3.Schema, value any) any {
	if schema == nil || value == nil {
		return copyValue(value)
	}
	if schema.Type == "" && (len(schema.AllOf) > 0 || len(schema.AnyOf) > 0 || len(schema.OneOf) > 0) {
		return coerceComposed(schema, value)
	}
	switch schema.Type {
	case openapi3.TypeInteger:
		return coerceInteger(value)
	case openapi3.TypeNumber:
		return coerceNumber(value)
	case openapi3.TypeBoolean:
		return coerceBoolean(value)
	case openapi3.TypeString:
		return coerceString(value)
	case openapi3.TypeArray:
		return coerceArray(schema, value)
	case openapi3.TypeObject, "":
		return coerceObject(schema, value)
	}
	return copyValue(value)
}

func coerceInteger(value any) any {
	if !isScalar(value) {
		return copyValue(value)
	}
	switch v := value.(type) {
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return value
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}

func coerceNumber(value any) any {
	if !isScalar(value) {
		return copyValue(value)
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return value
	}
	return f
}

// coerceBoolean accepts only "true", "false", 1 and 0.
func coerceBoolean(value any) any {
	switch v := value.(type) {
	case bool:
		return value
	case string:
		switch v {
		case "true":
			return true
		case "false":
			return false
		}
		return value
	case json.Number, float64, float32, int, int32, int64:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return value
		}
		switch f {
		case 1:
			return true
		case 0:
			return false
		}
		return value
	}
	return copyValue(value)
}

// coerceComposed coerces through every allOf branch in turn. For anyOf and
// oneOf the first branch whose coerced value validates wins; when none does
// the value is returned unchanged.
func coerceComposed(schema *openapi3.Schema, value any) any {
	out := copyValue(value)
	for _, ref := range schema.AllOf {
		if ref != nil && ref.Value != nil {
			out = Coerce(ref.Value, out)
		}
	}
	for _, branches := range []openapi3.SchemaRefs{schema.AnyOf, schema.OneOf} {
		for _, ref := range branches {
			if ref == nil || ref.Value == nil {
				continue
			}
			candidate := Coerce(ref.Value, out)
			if err := ref.Value.VisitJSON(candidate); err == nil {
				out = candidate
				break
			}
		}
	}
	if len(schema.Properties) > 0 || schema.AdditionalProperties.Schema != nil {
		out = coerceObject(schema, out)
	}
	return out
}

func isScalar(value any) bool {
	switch value.(type) {
	case string, bool, json.Number, float64, float32, int, int32, int64:
		return true
	}
	return false
}

func copyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	}
	return value
}
