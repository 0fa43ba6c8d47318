package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"webflowcms/internal/engine"
	"webflowcms/internal/loader"
	"webflowcms/internal/types"
)

var (
	inputJSON string
	dryRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run <flow-name|flow-file>",
	Short: "Execute a flow with JSON input",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlow,
}

func init() {
	runCmd.Flags().StringVar(&inputJSON, "input", "{}", "JSON input for the flow")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would execute without running")
	rootCmd.AddCommand(runCmd)
}

func runFlow(cmd *cobra.Command, args []string) error {
	flow, err := loader.New(nil).Resolve(flowsDir, args[0])
	if err != nil {
		return fmt.Errorf("loading flow: %w", err)
	}

	input, err := parseJSONObject("input", inputJSON)
	if err != nil {
		return err
	}

	eng := current.engine()
	if err := engine.ValidateFlow(flow, eng.Registry); err != nil {
		return err
	}

	if dryRun {
		result, err := eng.DryRun(flow, input)
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	result, err := eng.RunWithSecrets(cmd.Context(), flow, input, current.secrets)
	if err != nil {
		return err
	}
	if err := printJSON(result); err != nil {
		return err
	}
	if result.Status == types.StatusFailed {
		return fmt.Errorf("flow %q failed: %s", flow.Name, result.Error)
	}
	return nil
}
