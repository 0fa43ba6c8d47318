package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"webflowcms/internal/loader"
	"webflowcms/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook and option-loader HTTP server",
	Args:  cobra.NoArgs,
	RunE:  serveWebhook,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default from config: 8080)")
	rootCmd.AddCommand(serveCmd)
}

func serveWebhook(cmd *cobra.Command, args []string) error {
	flows, err := loader.LoadFlows(flowsDir)
	if err != nil {
		return fmt.Errorf("loading flows: %w", err)
	}

	port := servePort
	if port == 0 {
		port = current.cfg.Server.Port
	}

	opts := []server.Option{
		server.WithSecrets(current.secrets),
		server.WithLogger(current.log.Named("server")),
	}
	if current.api != nil {
		opts = append(opts, server.WithOptionsAPI(current.api))
	}

	srv := server.NewWebhookServer(current.engine(), flows, opts...)
	for _, name := range loader.Names(flows) {
		f := flows[name]
		if f.Trigger != nil && f.Trigger.Type == "webhook" {
			current.log.Infow("webhook registered", "method", "POST", "path", f.Trigger.Path, "flow", f.Name)
		}
	}
	return srv.ListenAndServe(cmd.Context(), fmt.Sprintf(":%d", port))
}
