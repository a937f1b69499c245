package cli

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/openapiroute/internal/mock"
	"github.com/mark3labs/openapiroute/router"
	"github.com/mark3labs/openapiroute/spec"
)

// Config captures every input that influences the serve, check and schema
// commands after merging defaults, environment, config file values and CLI
// overrides, in that order.
type Config struct {
	Spec             string
	Addr             string
	FallbackHandler  string
	ShutdownTimeout  time.Duration
	IncludeTags      []string
	ExcludeTags      []string
	Methods          []string
	Paths            []string
	HandlerKey       string
	SchemaPath       string
	InjectInputError bool
	ConfigPath       string
	Verbose          bool
}

func defaultConfig() Config {
	return Config{
		Addr:             ":8080",
		FallbackHandler:  mock.NotImplemented,
		ShutdownTimeout:  10 * time.Second,
		HandlerKey:       spec.DefaultHandlerKey,
		SchemaPath:       router.DefaultSchemaPath,
		InjectInputError: true,
	}
}

// envConfig is the subset of Config read from the environment.
type envConfig struct {
	Spec            string        `env:"OPENAPIROUTE_SPEC"`
	Addr            string        `env:"OPENAPIROUTE_ADDR"`
	FallbackHandler string        `env:"OPENAPIROUTE_FALLBACK_HANDLER"`
	ShutdownTimeout time.Duration `env:"OPENAPIROUTE_SHUTDOWN_TIMEOUT"`
}

// addSpecFlags registers the flags shared by every command that loads a
// document.
func addSpecFlags(flags *pflag.FlagSet) {
	flags.String("spec", "", "Path or URL to the OpenAPI/Swagger document")
	flags.String("fallback-handler", "", "Builtin handler for operations without a known handler (echo|ok|notImplemented)")
	flags.StringSlice("include-tags", nil, "Only serve operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Skip operations with these tags")
	flags.StringSlice("methods", nil, "Only serve these HTTP methods")
	flags.StringSlice("paths", nil, "Only serve paths matching these regular expressions")
	flags.String("handler-key", "", "Operation extension naming the handlers")
	flags.String("schema-path", "", "Route serving the published document")
	flags.Bool("inject-input-error", true, "Provide the InputError components to $refs")
}

func resolveConfig(cmd *cobra.Command) (*Config, error) {
	cfg := defaultConfig()

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return newUsageError(fmt.Sprintf("environment: %v", err))
	}
	if env.Spec != "" {
		cfg.Spec = env.Spec
	}
	if env.Addr != "" {
		cfg.Addr = env.Addr
	}
	if env.FallbackHandler != "" {
		cfg.FallbackHandler = env.FallbackHandler
	}
	if env.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = env.ShutdownTimeout
	}
	return nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *Config) error {
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	str := func(name string, dst *string) error {
		if !changed(name) {
			return nil
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(v)
		return nil
	}
	list := func(name string, dst *[]string) error {
		if !changed(name) {
			return nil
		}
		v, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(v)
		return nil
	}
	boolean := func(name string, dst *bool) error {
		if !changed(name) {
			return nil
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}

	for _, err := range []error{
		str("spec", &cfg.Spec),
		str("addr", &cfg.Addr),
		str("fallback-handler", &cfg.FallbackHandler),
		str("handler-key", &cfg.HandlerKey),
		str("schema-path", &cfg.SchemaPath),
		list("include-tags", &cfg.IncludeTags),
		list("exclude-tags", &cfg.ExcludeTags),
		list("methods", &cfg.Methods),
		list("paths", &cfg.Paths),
		boolean("inject-input-error", &cfg.InjectInputError),
		boolean("verbose", &cfg.Verbose),
	} {
		if err != nil {
			return err
		}
	}
	if changed("shutdown-timeout") {
		v, err := flags.GetDuration("shutdown-timeout")
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = v
	}
	return nil
}

func (c *Config) normalize() {
	c.Spec = strings.TrimSpace(c.Spec)
	c.Addr = strings.TrimSpace(c.Addr)
	c.FallbackHandler = strings.TrimSpace(c.FallbackHandler)
	c.HandlerKey = strings.TrimSpace(c.HandlerKey)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	c.Methods = sanitizeTags(c.Methods)
	c.Paths = sanitizeTags(c.Paths)
	if c.HandlerKey == "" {
		c.HandlerKey = spec.DefaultHandlerKey
	}
}

func (c *Config) validate() error {
	if c.Spec == "" {
		return newUsageError("--spec is required (set via flag, config file or OPENAPIROUTE_SPEC)")
	}
	if c.FallbackHandler != "" {
		if _, ok := mock.Handlers()[c.FallbackHandler]; !ok {
			return newUsageError(fmt.Sprintf("unknown --fallback-handler %q (allowed: %s, %s, %s)",
				c.FallbackHandler, mock.Echo, mock.OK, mock.NotImplemented))
		}
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}
	for _, p := range c.Paths {
		if _, err := regexp.Compile(p); err != nil {
			return newUsageError(fmt.Sprintf("invalid --paths pattern %q: %v", p, err))
		}
	}
	if c.ShutdownTimeout < 0 {
		return newUsageError("--shutdown-timeout must not be negative")
	}
	return nil
}

func applyConfigFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "spec":
			cfg.Spec, err = valueAsString(value)
		case "addr":
			cfg.Addr, err = valueAsString(value)
		case "fallbackhandler":
			cfg.FallbackHandler, err = valueAsString(value)
		case "handlerkey":
			cfg.HandlerKey, err = valueAsString(value)
		case "schemapath":
			cfg.SchemaPath, err = valueAsString(value)
		case "shutdowntimeout":
			cfg.ShutdownTimeout, err = cast.ToDurationE(value)
		case "includetags":
			cfg.IncludeTags, err = valueAsStringSlice(value)
		case "excludetags":
			cfg.ExcludeTags, err = valueAsStringSlice(value)
		case "methods":
			cfg.Methods, err = valueAsStringSlice(value)
		case "paths":
			cfg.Paths, err = valueAsStringSlice(value)
		case "injectinputerror":
			cfg.InjectInputError, err = valueAsBool(value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	if v == nil {
		return false, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value %v", v)
	}
	return b, nil
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
