package spec

import "fmt"

// normalizeTree converts YAML-decoded values into JSON-compatible ones.
func normalizeTree(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeTree(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeTree(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalizeTree(item)
		}
		return val
	}
	return v
}

func copyTree(v any) any {
	return StripKey(v, "")
}

// StripKey returns a deep copy of tree with every object entry named key
// removed, at any depth. An empty key copies the tree unchanged.
func StripKey(tree any, key string) any {
	switch val := tree.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if key != "" && k == key {
				continue
			}
			out[k] = StripKey(item, key)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = StripKey(item, key)
		}
		return out
	}
	return tree
}

// Published returns the raw document with the handler extension key removed,
// suitable for serving to tooling.
func (d *Document) Published(key string) map[string]any {
	out, _ := StripKey(d.Raw, key).(map[string]any)
	return out
}
