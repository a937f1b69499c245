package spec

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// DefaultHandlerKey is the operation extension naming a route's handlers.
const DefaultHandlerKey = "x-handler"

// Route is one (path, method) declaration with everything needed to build its
// validation chain.
type Route struct {
	Path        string
	Method      string // upper case, e.g. "GET"
	OperationID string
	Tags        []string
	// Parameters merges path-level and operation-level parameters; the
	// operation wins on the same in:name.
	Parameters  openapi3.Parameters
	RequestBody *openapi3.RequestBody
	Responses   openapi3.Responses
	Handlers    []string
}

// Pointer returns the JSON pointer of the route's operation.
func (r Route) Pointer() string {
	p := strings.ReplaceAll(strings.ReplaceAll(r.Path, "~", "~0"), "/", "~1")
	return fmt.Sprintf("#/paths/%s/%s", p, strings.ToLower(r.Method))
}

// RouteOption configures how routes are extracted from a document.
type RouteOption func(*routeConfig)

type routeConfig struct {
	handlerKey  string
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[string]struct{}
	pathRes     []*regexp.Regexp
	err         error
}

// WithHandlerKey sets the extension field holding handler names.
func WithHandlerKey(key string) RouteOption {
	return func(c *routeConfig) {
		if key = strings.TrimSpace(key); key != "" {
			c.handlerKey = key
		}
	}
}

// WithIncludeTags keeps only routes that have at least one of the given tags.
func WithIncludeTags(tags []string) RouteOption {
	return func(c *routeConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes routes that have any of the given tags.
func WithExcludeTags(tags []string) RouteOption {
	return func(c *routeConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

// WithMethods keeps only routes using one of the provided HTTP methods.
func WithMethods(methods []string) RouteOption {
	return func(c *routeConfig) {
		for _, m := range methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if m == "" {
				continue
			}
			if c.methods == nil {
				c.methods = make(map[string]struct{}, len(methods))
			}
			c.methods[m] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only routes whose path matches at least one of the
// provided regular expressions. Routes reports an invalid pattern.
func WithPathPatterns(patterns []string) RouteOption {
	return func(c *routeConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				if c.err == nil {
					c.err = &SpecError{Code: InputError, Message: fmt.Sprintf("invalid path pattern %q: %v", p, err), Cause: err}
				}
				continue
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// Routes extracts the route declarations of doc, sorted by path and then by
// method in the order GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, TRACE.
func Routes(doc *Document, opts ...RouteOption) ([]Route, error) {
	if doc == nil || doc.T == nil {
		return nil, fmt.Errorf("nil document")
	}
	cfg := &routeConfig{handlerKey: DefaultHandlerKey}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}

	pathKeys := make([]string, 0, len(doc.T.Paths))
	for p := range doc.T.Paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var routes []Route
	for _, p := range pathKeys {
		item := doc.T.Paths[p]
		if item == nil || !cfg.matchPath(p) {
			continue
		}
		ops := []struct {
			method string
			op     *openapi3.Operation
		}{
			{http.MethodGet, item.Get},
			{http.MethodPost, item.Post},
			{http.MethodPut, item.Put},
			{http.MethodDelete, item.Delete},
			{http.MethodPatch, item.Patch},
			{http.MethodHead, item.Head},
			{http.MethodOptions, item.Options},
			{http.MethodTrace, item.Trace},
		}
		for _, pair := range ops {
			if pair.op == nil || !cfg.matchMethod(pair.method) {
				continue
			}
			tags := cleanTags(pair.op.Tags)
			if !cfg.allowByTags(tags) {
				continue
			}
			route := Route{
				Path:        p,
				Method:      pair.method,
				OperationID: pair.op.OperationID,
				Tags:        tags,
				Parameters:  mergeParameters(item.Parameters, pair.op.Parameters),
				Responses:   pair.op.Responses,
			}
			if pair.op.RequestBody != nil {
				route.RequestBody = pair.op.RequestBody.Value
			}
			handlers, err := handlerNames(doc.Raw, p, pair.method, cfg.handlerKey)
			if err != nil {
				return nil, &SpecError{
					Code:        HandlerError,
					Message:     fmt.Sprintf("%s %s: %v", pair.method, p, err),
					Location:    doc.Location,
					JSONPointer: route.Pointer() + "/" + cfg.handlerKey,
					Cause:       err,
				}
			}
			route.Handlers = handlers
			routes = append(routes, route)
		}
	}
	return routes, nil
}

func (c *routeConfig) matchPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *routeConfig) matchMethod(m string) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[m]
	return ok
}

func (c *routeConfig) allowByTags(tags []string) bool {
	for _, t := range tags {
		if _, ok := c.excludeTags[t]; ok {
			return false
		}
	}
	if len(c.includeTags) == 0 {
		return true
	}
	for _, t := range tags {
		if _, ok := c.includeTags[t]; ok {
			return true
		}
	}
	return false
}

func cleanTags(in []string) []string {
	tags := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// mergeParameters merges path-level parameters with operation-level ones,
// keeping declaration order. Operation-level entries replace path-level
// entries with the same in:name.
func mergeParameters(pathLevel, opLevel openapi3.Parameters) openapi3.Parameters {
	merged := make(openapi3.Parameters, 0, len(pathLevel)+len(opLevel))
	index := make(map[string]int, len(pathLevel)+len(opLevel))
	add := func(ref *openapi3.ParameterRef) {
		if ref == nil || ref.Value == nil {
			return
		}
		key := paramKey(ref.Value.In, ref.Value.Name)
		if i, ok := index[key]; ok {
			merged[i] = ref
			return
		}
		index[key] = len(merged)
		merged = append(merged, ref)
	}
	for _, ref := range pathLevel {
		add(ref)
	}
	for _, ref := range opLevel {
		add(ref)
	}
	return merged
}

func paramKey(in, name string) string {
	return strings.ToLower(in) + ":" + name
}

// handlerNames reads the handler extension of one operation from the raw
// tree. The value may be a single name or a list of names.
func handlerNames(raw map[string]any, path, method, key string) ([]string, error) {
	paths, _ := raw["paths"].(map[string]any)
	item, _ := paths[path].(map[string]any)
	op, _ := item[strings.ToLower(method)].(map[string]any)
	value, ok := op[key]
	if !ok || value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%s must not be empty", key)
		}
		return []string{strings.TrimSpace(v)}, nil
	case []any:
		names := make([]string, 0, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("%s[%d]: expected a handler name, got %T", key, i, elem)
			}
			names = append(names, strings.TrimSpace(s))
		}
		return names, nil
	default:
		return nil, fmt.Errorf("%s: expected a handler name or a list of names, got %T", key, value)
	}
}
