package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"webflowcms/internal/node"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [<resource>.<operation>]",
	Short: "Print the node description or the parameters of one operation",
	Long: "Without arguments prints the full node description (YAML, or JSON with -o json).\n" +
		"With an operation, lists the parameters it takes.",
	Args: cobra.MaximumNArgs(1),
	RunE: showSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func showSchema(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		desc := node.Description()
		if outputFormat == "json" {
			return printJSON(desc)
		}
		return printYAML(desc)
	}

	resource, operation, ok := strings.Cut(args[0], ".")
	if !ok || !knownOperation(resource, operation) {
		return fmt.Errorf("unknown operation %q (see: webflowcms actions webflow)", args[0])
	}
	props := node.PropertiesFor(resource, operation)
	if outputFormat == "json" {
		return printJSON(props)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tREQUIRED\tDEFAULT\tDESCRIPTION")
	for _, p := range props {
		def := "-"
		if p.Default != nil {
			def = fmt.Sprint(p.Default)
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n", p.Name, p.Type, p.Required, def, p.Description)
	}
	return w.Flush()
}

func knownOperation(resource, operation string) bool {
	for _, op := range node.Operations() {
		if op.Resource == resource && op.Name == operation {
			return true
		}
	}
	return false
}
