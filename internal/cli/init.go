package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	ConfigPath string
	Force      bool
	Verbose    bool
	Stdout     io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample OpenAPI document wired to the builtin handlers",
		Long: "Scaffold a sample OpenAPI document that names its handlers with x-handler and " +
			"references the InputErrorResponse component, optionally with a commented config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			configOut, err := cmd.Flags().GetString("config-out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				ConfigPath: configOut,
				Force:      force,
				Verbose:    verbose,
				Stdout:     cmd.OutOrStdout(),
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", "openapi.yaml", "Where to write the sample document")
	cmd.Flags().String("config-out", "", "Also write a commented config file pointing at the document")
	cmd.Flags().Bool("force", false, "Overwrite target files if they already exist")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "openapi.yaml"
	}
	docPath, err := writeScaffold(out, sampleDocumentYAML, cfg.Force)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote sample document to %s\n", docPath)

	if strings.TrimSpace(cfg.ConfigPath) == "" {
		return nil
	}
	content := strings.Replace(sampleConfigYAML, "{{spec}}", docPath, 1)
	configPath, err := writeScaffold(cfg.ConfigPath, content, cfg.Force)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote sample config to %s\n", configPath)
	return nil
}

// writeScaffold writes content to path atomically and returns the absolute
// path written.
func writeScaffold(path, content string, force bool) (string, error) {
	absPath, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !force {
		if st.Mode().IsRegular() {
			return "", newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		return "", newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	return absPath, nil
}

// sampleDocumentYAML serves with the builtin handlers as is.
const sampleDocumentYAML = `openapi: 3.0.3
info:
  title: Sample API
  version: "1.0.0"
paths:
  /health:
    get:
      summary: Liveness probe
      x-handler: ok
      responses:
        "204":
          description: healthy
  /items:
    get:
      summary: List items
      tags: [items]
      x-handler: echo
      parameters:
        - in: query
          name: limit
          schema:
            type: integer
            minimum: 1
            maximum: 100
        - in: query
          name: q
          schema:
            type: string
            minLength: 3
      responses:
        "200":
          description: items
        "400":
          $ref: '#/components/responses/InputErrorResponse'
    post:
      summary: Create an item
      tags: [items]
      x-handler: echo
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Item'
      responses:
        "200":
          description: created
        "400":
          $ref: '#/components/responses/InputErrorResponse'
  /items/{id}:
    parameters:
      - in: path
        name: id
        required: true
        schema:
          type: integer
    get:
      summary: Fetch an item
      tags: [items]
      x-handler: echo
      responses:
        "200":
          description: item
        "400":
          $ref: '#/components/responses/InputErrorResponse'
    delete:
      summary: Delete an item
      tags: [items, admin]
      x-handler: [ok]
      responses:
        "204":
          description: deleted
        "400":
          $ref: '#/components/responses/InputErrorResponse'
  /reports:
    get:
      summary: Not built yet, served by the fallback handler
      tags: [reports]
      x-handler: buildReport
      responses:
        "200":
          description: report
components:
  schemas:
    Item:
      type: object
      required: [name]
      additionalProperties: false
      properties:
        name:
          type: string
          minLength: 1
        owner:
          type: string
          format: email
        count:
          type: integer
          minimum: 0
`

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# openapiroute configuration (YAML)
# All fields are optional. Environment variables override defaults, this file
# overrides the environment and command-line flags override this file.

# Path or URL to the OpenAPI/Swagger document. ENV: OPENAPIROUTE_SPEC
spec: {{spec}}

# Listen address for serve. ENV: OPENAPIROUTE_ADDR
# addr: ":8080"

# Builtin handler (echo|ok|notImplemented) for operations whose handler is
# missing or unknown. ENV: OPENAPIROUTE_FALLBACK_HANDLER
# fallbackHandler: notImplemented

# Grace period for in-flight requests on shutdown. ENV: OPENAPIROUTE_SHUTDOWN_TIMEOUT
# shutdownTimeout: 10s

# Only serve operations with these tags (comma-separated or list).
# includeTags: [items]

# Skip operations with these tags (comma-separated or list).
# excludeTags: [admin]

# Only serve these HTTP methods.
# methods: [GET, POST]

# Only serve paths matching these regular expressions.
# paths: ["^/items"]

# Operation extension naming the handlers.
# handlerKey: x-handler

# Route serving the published document. Empty disables it.
# schemaPath: /schema.json

# Provide #/components/responses/InputErrorResponse to $refs.
# injectInputError: true

# Enable debug logging.
# verbose: false
`
