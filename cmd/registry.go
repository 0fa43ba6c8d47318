package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webflowcms/internal/config"
	"webflowcms/internal/credentials"
	"webflowcms/internal/engine"
	"webflowcms/internal/logger"
	"webflowcms/internal/node"
	"webflowcms/internal/plugin"
	"webflowcms/internal/plugin/builtin"
	"webflowcms/internal/webflow"
)

// app is the per-invocation state assembled before any command runs.
type app struct {
	cfg     *config.AppConfig
	secrets map[string]string
	// api is nil when no credentials are configured.
	api *webflow.Client
	log *zap.SugaredLogger
}

var current *app

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if debug {
		cfg.Debug = true
	}
	if flowsDir == "" {
		flowsDir = cfg.FlowsDir
	}

	lc := logger.DefaultConfig()
	lc.Debug = cfg.Debug
	lc.LogFile = cfg.LogFile
	if cfg.LogFormat != "" {
		lc.LogFormat = cfg.LogFormat
	}
	if err := logger.InitLogger(lc); err != nil {
		return err
	}
	log := logger.Logger
	if loaded.File != "" {
		logger.LogDebug("config loaded", map[string]any{"file": loaded.File})
	}

	var secrets map[string]string
	if secretsFile != "" {
		if secrets, err = engine.LoadSecrets(secretsFile); err != nil {
			return err
		}
	}
	if tok := secrets[engine.SecretAccessToken]; tok != "" {
		cfg.Webflow.AccessToken = tok
	}

	api, err := newClient(cmd.Context(), cfg.Webflow, log)
	switch {
	case errors.Is(err, credentials.ErrNoCredentials):
		logger.LogDebug("no webflow credentials configured, API actions are disabled", nil)
	case err != nil:
		logger.LogError("building webflow client", err, nil)
		return err
	}

	current = &app{cfg: cfg, secrets: secrets, api: api, log: log}
	return nil
}

func newClient(ctx context.Context, wc config.WebflowConfig, log *zap.SugaredLogger) (*webflow.Client, error) {
	creds := credentials.Credentials{
		AccessToken:  wc.AccessToken,
		RefreshToken: wc.RefreshToken,
		ClientID:     wc.ClientID,
		ClientSecret: wc.ClientSecret,
	}
	httpClient, err := creds.HTTPClient(ctx, &http.Client{Timeout: wc.Timeout})
	if err != nil {
		return nil, err
	}
	return webflow.NewClient(httpClient,
		webflow.WithBaseURL(wc.BaseURL),
		webflow.WithAcceptVersion(wc.AcceptVersion),
		webflow.WithLogger(log.Named("api")),
	), nil
}

// nodeAPI returns the client as a node.API, keeping a missing client a nil
// interface.
func (a *app) nodeAPI() node.API {
	if a.api == nil {
		return nil
	}
	return a.api
}

// requireAPI is for commands that cannot do anything without credentials.
func (a *app) requireAPI() (*webflow.Client, error) {
	if a.api == nil {
		return nil, fmt.Errorf("%w (set webflow.access_token, WEBFLOWCMS_WEBFLOW_ACCESS_TOKEN or %s in the secrets file)",
			credentials.ErrNoCredentials, engine.SecretAccessToken)
	}
	return a.api, nil
}

func (a *app) registry() *plugin.Registry {
	api := a.nodeAPI()
	return plugin.NewRegistry().MustRegister(
		builtin.NewWebflowConnector(api, builtin.WithConnectorLogger(a.log.Named("node"))),
		builtin.NewHTTPConnector(api),
		builtin.NewLogConnector(a.log),
	)
}

func (a *app) engine() *engine.Engine {
	eng := engine.NewEngine(a.registry())
	eng.Logger = a.log.Named("engine")
	return eng
}
