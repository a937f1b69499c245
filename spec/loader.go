package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
	HandlerError    ErrorCode = "HandlerError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Document is a resolved OpenAPI v3 document together with the raw tree it
// was decoded from. Raw keeps extension fields exactly as written.
type Document struct {
	T        *openapi3.T
	Raw      map[string]any
	Location string
	// Version is the major version of the input (2 for Swagger, 3 for OpenAPI).
	Version int
}

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// AllowFileRefs controls whether file:// refs are allowed for external references.
	// Automatically allowed when the root input is a local file.
	AllowFileRefs bool
	// InputErrorComponents injects the InputError schema and response into
	// components when the document does not define them.
	InputErrorComponents bool
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option  { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option    { return func(s *Settings) { s.AllowFileRefs = allow } }

// WithInputErrorComponents makes #/components/schemas/InputError and
// #/components/responses/InputErrorResponse available to $refs.
func WithInputErrorComponents() Option {
	return func(s *Settings) { s.InputErrorComponents = true }
}

// Load reads, resolves and validates an OpenAPI document. Swagger 2.0 input is
// converted to v3 via kin-openapi openapi2conv.
//
// input may be a filesystem path or an http/https URL. file:// URLs are blocked.
func Load(ctx context.Context, input string, opts ...Option) (*Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked by default", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return load(ctx, raw, input, u, newLoader(settings, false), settings)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return load(ctx, raw, abs, &url.URL{Path: filepath.ToSlash(abs)}, newLoader(settings, true), settings)
}

// LoadData resolves a document held in memory. Relative external references
// are not followed.
func LoadData(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	return load(ctx, data, "", nil, newLoader(settings, false), settings)
}

func load(ctx context.Context, data []byte, location string, base *url.URL, loader *openapi3.Loader, settings Settings) (*Document, error) {
	tree, err := decodeTree(data)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	version, err := detectSpecVersion(tree)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	if settings.InputErrorComponents {
		if err := injectInputErrorComponents(tree, version); err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("inject components: %v", err), Location: location, Cause: err}
		}
	}

	loader.Context = ctx
	var doc *openapi3.T
	switch version {
	case 3:
		encoded, err := json.Marshal(tree)
		if err != nil {
			return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
		}
		if base != nil {
			doc, err = loader.LoadFromDataWithPath(encoded, base)
		} else {
			doc, err = loader.LoadFromData(encoded)
		}
		if err != nil {
			return nil, mapValidateOrParseErr(err, location)
		}
	case 2:
		// Work on a copy so the published tree stays as written.
		v2tree := copyTree(tree).(map[string]any)
		preprocessV2ForCompatibility(v2tree)
		doc, err = convertV2ToV3(v2tree)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: location, Cause: err}
		}
		if err := loader.ResolveRefsIn(doc, base); err != nil {
			return nil, mapValidateOrParseErr(err, location)
		}
	default:
		return nil, &SpecError{Code: ParseError, Message: "spec: unknown or unsupported OpenAPI/Swagger version", Location: location}
	}

	if err := doc.Validate(ctx); err != nil && !canProceedDespiteValidation(err) {
		return nil, mapValidateOrParseErr(err, location)
	}
	return &Document{T: doc, Raw: tree, Location: location, Version: version}, nil
}

func newLoader(settings Settings, rootIsFile bool) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := &http.Client{Timeout: settings.HTTPTimeout}
	// Allow file refs only when configured or when loading from a local file root.
	allowFile := settings.AllowFileRefs || rootIsFile
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !allowFile {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(filepath.FromSlash(path))
		case "http", "https":
			ctx := l.Context
			if ctx == nil {
				ctx = context.Background()
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, uri.String())
			}
			return io.ReadAll(resp.Body)
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

// decodeTree parses YAML or JSON into a tree of map[string]any, []any and
// scalars. Non-string mapping keys (e.g. unquoted status codes) become strings.
func decodeTree(data []byte) (map[string]any, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	m, ok := normalizeTree(root).(map[string]any)
	if !ok {
		return nil, errors.New("parse spec: document root must be a mapping")
	}
	return m, nil
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func detectSpecVersion(root map[string]any) (int, error) {
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func convertV2ToV3(tree map[string]any) (*openapi3.T, error) {
	encoded, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(encoded, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs one GET. retry reports whether the failure is transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") || strings.Contains(lower, "unmarshal") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors a best-effort
// build can survive (e.g., unresolved $ref entries in unused components).
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref") || strings.Contains(s, "found unresolved ref")
}
