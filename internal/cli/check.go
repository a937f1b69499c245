package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mark3labs/openapiroute/router"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Assemble every route of a document and print the route table",
		Long: "Load the document, compile every validator and register every route without " +
			"serving. Any configuration error is reported with a pointer into the document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			api, err := buildAPI(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg.Verbose))
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), api.Routes())
		},
	}
	addSpecFlags(cmd.Flags())
	return cmd
}

func printRoutes(w io.Writer, routes []*router.Route) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATTERN\tHANDLERS\tBODY")
	for _, r := range routes {
		body := "-"
		if r.ValidatesBody() {
			body = "json"
		}
		handlers := strings.Join(r.Handlers, ",")
		if handlers == "" {
			handlers = "(fallback)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Method, r.Pattern, handlers, body)
	}
	return tw.Flush()
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the document as served at the schema path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			api, err := buildAPI(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg.Verbose))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.Published())
		},
	}
	addSpecFlags(cmd.Flags())
	return cmd
}
