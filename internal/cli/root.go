package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// Execute runs the openapiroute CLI.
func Execute() error {
	// gin's debug mode prints route tables to stdout, which would corrupt the
	// output of check and schema.
	gin.SetMode(gin.ReleaseMode)
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "openapiroute",
		Short:         "Serve OpenAPI documents with validated routes",
		Long:          "openapiroute turns an OpenAPI/Swagger document into validated HTTP routes and serves them with builtin handlers.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	flagErr := func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	}
	cmd.SetFlagErrorFunc(flagErr)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	for _, sub := range []*cobra.Command{newServeCmd(), newCheckCmd(), newSchemaCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagErr)
		cmd.AddCommand(sub)
	}

	return cmd
}
