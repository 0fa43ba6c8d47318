package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"webflowcms/internal/loader"
	"webflowcms/internal/types"
)

var describeCmd = &cobra.Command{
	Use:   "describe <flow-name|flow-file>",
	Short: "Show details of a flow",
	Args:  cobra.ExactArgs(1),
	RunE:  describeFlow,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func describeFlow(cmd *cobra.Command, args []string) error {
	flow, err := loader.New(nil).Resolve(flowsDir, args[0])
	if err != nil {
		return fmt.Errorf("loading flow: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(flow)
	}

	fmt.Printf("Name:        %s\n", flow.Name)
	fmt.Printf("Version:     %s\n", flow.Version)
	fmt.Printf("Description: %s\n", flow.Description)
	if flow.Trigger != nil {
		fmt.Printf("Trigger:     %s (%s)\n", flow.Trigger.Type, flow.Trigger.Path)
	}

	if flow.Input != nil && len(flow.Input.Properties) > 0 {
		fmt.Println("\nInput Schema:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  FIELD\tTYPE\tREQUIRED\tDESCRIPTION")
		for _, name := range sortedFields(flow.Input.Properties) {
			field := flow.Input.Properties[name]
			fmt.Fprintf(w, "  %s\t%s\t%v\t%s\n", name, field.Type, field.Required, field.Description)
		}
		w.Flush()
	}

	fmt.Println("\nSteps:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tNAME\tCONNECTOR\tACTION\tON_ERROR\tWHEN")
	for i, step := range flow.Steps {
		onError := step.OnError
		if onError == "" {
			onError = types.OnErrorAbort
		}
		when := step.When
		if when == "" {
			when = "-"
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\t%s\n", i+1, step.Name, step.Connector, step.Action, onError, when)
	}
	return w.Flush()
}

func sortedFields(fields map[string]types.FieldDef) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
