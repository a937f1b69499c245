package spec

import "strings"

// preprocessV2ForCompatibility rewrites non-compliant Swagger v2 operations in
// place so kin-openapi can convert them to v3:
//   - several body parameters are merged into one whose schema is an object
//     with a property per original parameter;
//   - body parameters mixed with formData are converted to formData and the
//     operation consumes multipart/form-data.
//
// It reports whether anything changed.
func preprocessV2ForCompatibility(doc map[string]any) bool {
	paths, ok := doc["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return false
	}
	modified := false

	for _, pim := range paths {
		pi, ok := pim.(map[string]any)
		if !ok {
			continue
		}
		for method, opm := range pi {
			switch strings.ToLower(method) {
			case "get", "post", "put", "delete", "patch", "options", "head":
			default:
				continue
			}
			op, ok := opm.(map[string]any)
			if !ok {
				continue
			}
			if rewriteV2Operation(op) {
				modified = true
			}
		}
	}
	return modified
}

func rewriteV2Operation(op map[string]any) bool {
	params, ok := op["parameters"].([]any)
	if !ok || len(params) == 0 {
		return false
	}

	bodyCount := 0
	hasFormData := false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		switch {
		case strings.EqualFold(asString(pm["in"]), "body"):
			bodyCount++
		case strings.EqualFold(asString(pm["in"]), "formData"):
			hasFormData = true
		}
	}
	if bodyCount == 0 {
		return false
	}

	if hasFormData {
		newParams := make([]any, 0, len(params))
		for _, p := range params {
			pm, _ := p.(map[string]any)
			if pm == nil {
				continue
			}
			if strings.EqualFold(asString(pm["in"]), "body") {
				newParams = append(newParams, formDataFromBodyParam(pm))
				continue
			}
			newParams = append(newParams, pm)
		}
		op["parameters"] = newParams
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, "multipart/form-data") {
			op["consumes"] = append(consumes, "multipart/form-data")
		}
		return true
	}

	if bodyCount == 1 {
		return false
	}

	props := map[string]any{}
	required := make([]any, 0)
	newParams := make([]any, 0, len(params))
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		if !strings.EqualFold(asString(pm["in"]), "body") {
			newParams = append(newParams, p)
			continue
		}
		name := asString(pm["name"])
		if name == "" {
			name = "field"
		}
		schema := extractSchemaFromParam(pm)
		if schema == nil {
			schema = map[string]any{"type": "string"}
		}
		props[name] = schema
		if rb, _ := pm["required"].(bool); rb {
			required = append(required, name)
		}
	}
	bodySchema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		bodySchema["required"] = required
	}
	merged := map[string]any{
		"in":       "body",
		"name":     "body",
		"required": len(required) > 0,
		"schema":   bodySchema,
	}
	op["parameters"] = append([]any{merged}, newParams...)
	return true
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}

func extractSchemaFromParam(pm map[string]any) map[string]any {
	if sch, ok := pm["schema"].(map[string]any); ok {
		return sch
	}
	t, _ := pm["type"].(string)
	if t == "" {
		return nil
	}
	m := map[string]any{"type": t}
	if it, ok := pm["items"].(map[string]any); ok {
		m["items"] = it
	}
	if f, ok := pm["format"].(string); ok && f != "" {
		m["format"] = f
	}
	return m
}

func formDataFromBodyParam(pm map[string]any) map[string]any {
	name := asString(pm["name"])
	if name == "" {
		name = "field"
	}
	out := map[string]any{
		"in":   "formData",
		"name": name,
	}
	if desc, ok := pm["description"].(string); ok && desc != "" {
		out["description"] = desc
	}
	if req, ok := pm["required"].(bool); ok {
		out["required"] = req
	}
	var typ, format string
	var items any
	if sch, ok := pm["schema"].(map[string]any); ok {
		typ, _ = sch["type"].(string)
		format, _ = sch["format"].(string)
		if it, ok := sch["items"].(map[string]any); ok {
			items = it
		}
		if typ == "" && sch["$ref"] != nil {
			// A referenced object has no formData form.
			typ = "string"
		}
	}
	if typ == "" {
		typ, _ = pm["type"].(string)
		format, _ = pm["format"].(string)
		if it, ok := pm["items"].(map[string]any); ok {
			items = it
		}
	}
	if typ == "" {
		typ = "string"
	}
	out["type"] = typ
	if items != nil {
		out["items"] = items
	}
	if format != "" {
		out["format"] = format
	}
	return out
}
