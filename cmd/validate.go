package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"webflowcms/internal/engine"
	"webflowcms/internal/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>",
	Short: "Validate a YAML flow file",
	Args:  cobra.ExactArgs(1),
	RunE:  validateFlow,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateFlow(cmd *cobra.Command, args []string) error {
	flow, err := loader.LoadFlow(args[0])
	if err != nil {
		return err
	}

	if err := engine.ValidateFlow(flow, current.registry()); err != nil {
		return err
	}

	fmt.Printf("Flow %q is valid.\n", flow.Name)
	return nil
}
