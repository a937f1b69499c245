package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func captureServeConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *Config
	serveRunner = func(ctx context.Context, cfg *Config) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { serveRunner = runServe })

	root.SetArgs(args)
	err := root.Execute()
	return captured, err
}

func TestServeConfigFromFlags(t *testing.T) {
	captured, err := captureServeConfig(t,
		"--verbose",
		"serve",
		"--spec", "spec.yaml",
		"--addr", "127.0.0.1:9000",
		"--fallback-handler", "echo",
		"--shutdown-timeout", "3s",
		"--include-tags", "foo,bar",
		"--exclude-tags", "baz",
		"--methods", "get",
		"--paths", "^/items",
		"--handler-key", "x-impl",
		"--schema-path", "/openapi.json",
		"--inject-input-error=false",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.Spec != "spec.yaml" {
		t.Errorf("spec mismatch: got %q", captured.Spec)
	}
	if captured.Addr != "127.0.0.1:9000" {
		t.Errorf("addr mismatch: got %q", captured.Addr)
	}
	if captured.FallbackHandler != "echo" {
		t.Errorf("fallback mismatch: got %q", captured.FallbackHandler)
	}
	if captured.ShutdownTimeout != 3*time.Second {
		t.Errorf("shutdown timeout mismatch: got %v", captured.ShutdownTimeout)
	}
	if want := []string{"foo", "bar"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags mismatch: got %v", captured.IncludeTags)
	}
	if want := []string{"baz"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags mismatch: got %v", captured.ExcludeTags)
	}
	if want := []string{"get"}; !equalStringSlices(captured.Methods, want) {
		t.Errorf("methods mismatch: got %v", captured.Methods)
	}
	if want := []string{"^/items"}; !equalStringSlices(captured.Paths, want) {
		t.Errorf("paths mismatch: got %v", captured.Paths)
	}
	if captured.HandlerKey != "x-impl" {
		t.Errorf("handler key mismatch: got %q", captured.HandlerKey)
	}
	if captured.SchemaPath != "/openapi.json" {
		t.Errorf("schema path mismatch: got %q", captured.SchemaPath)
	}
	if captured.InjectInputError {
		t.Errorf("expected inject-input-error false")
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true")
	}
}

func TestServeConfigDefaults(t *testing.T) {
	captured, err := captureServeConfig(t, "serve", "--spec", "spec.yaml")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := defaultConfig()
	if captured.Addr != want.Addr || captured.FallbackHandler != want.FallbackHandler ||
		captured.ShutdownTimeout != want.ShutdownTimeout || captured.SchemaPath != "/schema.json" ||
		captured.HandlerKey != "x-handler" || !captured.InjectInputError {
		t.Fatalf("unexpected defaults: %+v", captured)
	}
}

func TestServeConfigPrecedence(t *testing.T) {
	t.Setenv("OPENAPIROUTE_SPEC", "env-spec.yaml")
	t.Setenv("OPENAPIROUTE_ADDR", ":7000")
	t.Setenv("OPENAPIROUTE_FALLBACK_HANDLER", "ok")
	t.Setenv("OPENAPIROUTE_SHUTDOWN_TIMEOUT", "4s")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := strings.TrimSpace(`spec: config-spec.yaml
fallback-handler: echo
shutdownTimeout: 5s
includeTags:
  - cfgFoo
excludeTags: cfgBar
verbose: true
`) + "\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	captured, err := captureServeConfig(t,
		"--config", configPath,
		"serve",
		"--spec", "flag-spec.yaml",
		"--include-tags", "flagTag",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Spec != "flag-spec.yaml" {
		t.Errorf("spec: want flag-spec.yaml got %q", captured.Spec)
	}
	if captured.Addr != ":7000" {
		t.Errorf("addr: want :7000 from env got %q", captured.Addr)
	}
	if captured.FallbackHandler != "echo" {
		t.Errorf("fallback: want echo from config got %q", captured.FallbackHandler)
	}
	if captured.ShutdownTimeout != 5*time.Second {
		t.Errorf("shutdown timeout: want 5s from config got %v", captured.ShutdownTimeout)
	}
	if want := []string{"flagTag"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags: want %v got %v", want, captured.IncludeTags)
	}
	if want := []string{"cfgBar"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags: want %v got %v", want, captured.ExcludeTags)
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true from config file")
	}
	if captured.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", captured.ConfigPath)
	}
}

func TestServeConfigFromEnv(t *testing.T) {
	t.Setenv("OPENAPIROUTE_SPEC", "env-spec.yaml")

	captured, err := captureServeConfig(t, "serve")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Spec != "env-spec.yaml" {
		t.Fatalf("spec: want env-spec.yaml got %q", captured.Spec)
	}
}

func TestServeConfigErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(unknown, []byte("unknown: value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	badDuration := filepath.Join(dir, "duration.yaml")
	if err := os.WriteFile(badDuration, []byte("shutdownTimeout: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing spec", []string{"serve"}, "--spec is required"},
		{"unknown fallback", []string{"serve", "--spec", "s.yaml", "--fallback-handler", "nope"}, "unknown --fallback-handler"},
		{"tag overlap", []string{"serve", "--spec", "s.yaml", "--include-tags", "a", "--exclude-tags", "a"}, "overlap"},
		{"unknown config key", []string{"--config", unknown, "serve", "--spec", "s.yaml"}, "unknown field"},
		{"bad path pattern", []string{"serve", "--spec", "s.yaml", "--paths", "^/items("}, "invalid --paths pattern"},
		{"bad duration", []string{"--config", badDuration, "serve", "--spec", "s.yaml"}, "shutdownTimeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := captureServeConfig(t, tt.args...)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("unexpected error message: %v", err)
			}
		})
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
