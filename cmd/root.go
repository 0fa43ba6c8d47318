package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"webflowcms/internal/logger"
)

var (
	cfgFile      string
	flowsDir     string
	outputFormat string
	secretsFile  string
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:   "webflowcms",
	Short: "Webflow CMS automation from the command line",
	Long: "Create, read, update and delete Webflow CMS items, inspect collection schemas, " +
		"and run multi-step YAML flows against the Webflow API.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./webflowcms.yaml, then the user config dir)")
	pf.StringVar(&flowsDir, "flows-dir", "", "directory containing flow YAML files (default from config: ./flows)")
	pf.StringVarP(&outputFormat, "output", "o", "table", "output format: table or json")
	pf.StringVar(&secretsFile, "secrets-file", "", "path to .env-style secrets file")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Sync() //nolint:errcheck

	return rootCmd.ExecuteContext(ctx)
}
