package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"webflowcms/internal/plugin"
	"webflowcms/internal/types"
)

var (
	execParams         []string
	execParamsJSON     string
	execItemsJSON      string
	execContinueOnFail bool
)

var execCmd = &cobra.Command{
	Use:   "exec <resource>.<operation>",
	Short: "Run one Webflow CMS operation",
	Long: "Run a single node operation, e.g. item.getAll or collection.getFields.\n" +
		"Parameters come from --params (a JSON object) and repeated --param key=value flags.\n" +
		"Use the schema command to see the parameters of each operation.",
	Example: `  webflowcms exec item.getAll -p siteId=580e63e98c9a982ac9b8b741 -p collectionId=580e63fc8c9a982ac9b8b745 -p limit=10
  webflowcms exec item.create --params '{"siteId":"...","collectionId":"...","fieldsUi":{"fieldValues":[{"fieldId":"name","fieldValue":"Hello"}]}}'`,
	Args: cobra.ExactArgs(1),
	RunE: execOperation,
}

func init() {
	execCmd.Flags().StringArrayVarP(&execParams, "param", "p", nil, "operation parameter as key=value (repeatable)")
	execCmd.Flags().StringVar(&execParamsJSON, "params", "", "operation parameters as a JSON object")
	execCmd.Flags().StringVar(&execItemsJSON, "items", "", "input items as a JSON array of objects; the operation runs once per item")
	execCmd.Flags().BoolVar(&execContinueOnFail, "continue-on-fail", false, "record per-item failures as {error} items")
	rootCmd.AddCommand(execCmd)
}

func execOperation(cmd *cobra.Command, args []string) error {
	reg := current.registry()
	conn, _ := reg.Get("webflow")
	if _, ok := plugin.FindAction(conn, args[0]); !ok {
		return fmt.Errorf("unknown operation %q (see: webflowcms actions webflow)", args[0])
	}

	input, err := parseJSONObject("params", execParamsJSON)
	if err != nil {
		return err
	}
	kv, err := parseParams(execParams)
	if err != nil {
		return err
	}
	for k, v := range kv {
		input[k] = v
	}

	if execItemsJSON != "" {
		var items []any
		if err := json.Unmarshal([]byte(execItemsJSON), &items); err != nil {
			return fmt.Errorf("parsing --items JSON: %w", err)
		}
		input["items"] = items
	}
	if execContinueOnFail {
		input["continueOnFail"] = true
	}

	result, err := conn.Execute(cmd.Context(), args[0], input)
	if err != nil {
		return err
	}
	if err := printJSON(result.Output); err != nil {
		return err
	}
	if result.Status != types.StatusSuccess {
		return fmt.Errorf("%s: %s", args[0], result.Error)
	}
	return nil
}
