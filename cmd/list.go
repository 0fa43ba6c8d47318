package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"webflowcms/internal/loader"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available flows",
	Args:  cobra.NoArgs,
	RunE:  listFlows,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type flowSummary struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Trigger     string `json:"trigger,omitempty"`
	Steps       int    `json:"steps"`
}

func listFlows(cmd *cobra.Command, args []string) error {
	flows, err := loader.LoadFlows(flowsDir)
	if err != nil {
		return fmt.Errorf("loading flows: %w", err)
	}

	summaries := make([]flowSummary, 0, len(flows))
	for _, name := range loader.Names(flows) {
		f := flows[name]
		s := flowSummary{
			Name:        f.Name,
			Version:     f.Version,
			Description: f.Description,
			Steps:       len(f.Steps),
		}
		if f.Trigger != nil {
			s.Trigger = f.Trigger.Type
		}
		summaries = append(summaries, s)
	}

	if outputFormat == "json" {
		return printJSON(summaries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tDESCRIPTION\tSTEPS\tTRIGGER")
	for _, s := range summaries {
		trigger := s.Trigger
		if trigger == "" {
			trigger = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.Name, s.Version, s.Description, s.Steps, trigger)
	}
	return w.Flush()
}
