package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions [connector]",
	Short: "List connector actions usable in flow steps",
	Args:  cobra.MaximumNArgs(1),
	RunE:  listActions,
}

func init() {
	rootCmd.AddCommand(actionsCmd)
}

type actionSummary struct {
	Connector   string   `json:"connector"`
	Action      string   `json:"action"`
	Description string   `json:"description"`
	Required    []string `json:"required,omitempty"`
}

func listActions(cmd *cobra.Command, args []string) error {
	entries, err := current.registry().Catalog(args...)
	if err != nil {
		return err
	}

	summaries := make([]actionSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, actionSummary{
			Connector:   e.Connector,
			Action:      e.Action.Name,
			Description: e.Action.Description,
			Required:    e.Action.RequiredInputs(),
		})
	}

	if outputFormat == "json" {
		return printJSON(summaries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONNECTOR\tACTION\tREQUIRED\tDESCRIPTION")
	for _, s := range summaries {
		required := strings.Join(s.Required, ",")
		if required == "" {
			required = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Connector, s.Action, required, s.Description)
	}
	return w.Flush()
}
