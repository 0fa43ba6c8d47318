package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"webflowcms/internal/webflow"
)

var (
	optSiteID       string
	optCollectionID string
)

var optionsCmd = &cobra.Command{
	Use:       "options <sites|collections|fields>",
	Short:     "List selectable sites, collections or fields",
	Long:      "Runs the option loaders that back the siteId, collectionId and fieldId pickers.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"sites", "collections", "fields"},
	RunE:      listOptions,
}

func init() {
	optionsCmd.Flags().StringVar(&optSiteID, "site-id", "", "site whose collections to list")
	optionsCmd.Flags().StringVar(&optCollectionID, "collection-id", "", "collection whose fields to list")
	rootCmd.AddCommand(optionsCmd)
}

func listOptions(cmd *cobra.Command, args []string) error {
	api, err := current.requireAPI()
	if err != nil {
		return err
	}

	var opts []webflow.Option
	switch args[0] {
	case "sites":
		opts, err = webflow.LoadSites(cmd.Context(), api)
	case "collections":
		if optSiteID == "" {
			return fmt.Errorf("--site-id is required")
		}
		opts, err = webflow.LoadCollections(cmd.Context(), api, optSiteID)
	case "fields":
		if optCollectionID == "" {
			return fmt.Errorf("--collection-id is required")
		}
		opts, err = webflow.LoadFields(cmd.Context(), api, optCollectionID)
	}
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(opts)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVALUE\tDESCRIPTION")
	for _, o := range opts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.Name, o.Value, o.Description)
	}
	return w.Flush()
}
