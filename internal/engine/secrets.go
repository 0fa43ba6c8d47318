package engine

import (
	"fmt"

	"github.com/joho/godotenv"
)

// SecretAccessToken, when present in the secrets file, overrides the
// configured Webflow access token for the run.
const SecretAccessToken = "WEBFLOW_ACCESS_TOKEN"

// LoadSecrets reads a .env-style secrets file (KEY=VALUE per line, # comments,
// optional quotes and "export" prefixes).
func LoadSecrets(path string) (map[string]string, error) {
	secrets, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading secrets file %s: %w", path, err)
	}
	return secrets, nil
}
