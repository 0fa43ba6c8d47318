package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "webflowcms"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "WEBFLOWCMS"

	DefaultBaseURL       = "https://api.webflow.com/v2"
	DefaultAcceptVersion = "2.0.0"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	FlowsDir string `mapstructure:"flows_dir"`

	Webflow WebflowConfig `mapstructure:"webflow"`

	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
}

// WebflowConfig carries API endpoint settings and credentials. Either
// AccessToken, or ClientID/ClientSecret/RefreshToken, must be set before
// any API call is made.
type WebflowConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	AcceptVersion string        `mapstructure:"accept_version"`
	Timeout       time.Duration `mapstructure:"timeout"`

	AccessToken  string `mapstructure:"access_token"`
	RefreshToken string `mapstructure:"refresh_token"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// Result of a Load call.
type Loaded struct {
	Config *AppConfig
	// File is the config file used, empty when only defaults and
	// environment variables applied.
	File string
}

// Load reads configuration from cfgFile, or from the default search paths
// when cfgFile is empty, layered under WEBFLOWCMS_* environment variables.
// A missing config file is not an error.
func Load(cfgFile string) (*Loaded, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	loaded := &Loaded{Config: &AppConfig{}}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		loaded.File = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(loaded.Config); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return loaded, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")
	v.SetDefault("flows_dir", "./flows")

	v.SetDefault("webflow.base_url", DefaultBaseURL)
	v.SetDefault("webflow.accept_version", DefaultAcceptVersion)
	v.SetDefault("webflow.timeout", 30*time.Second)
	// Bound explicitly so AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("webflow.access_token", "")
	v.SetDefault("webflow.refresh_token", "")
	v.SetDefault("webflow.client_id", "")
	v.SetDefault("webflow.client_secret", "")

	v.SetDefault("server.port", 8080)
}

func addSearchPaths(v *viper.Viper) {
	v.AddConfigPath(".")

	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, AppName))
	}
}
