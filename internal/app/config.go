package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/playbook/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "playbook"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# playbook configuration
# Run: playbook --help

# Optional: override the SQLite database location.
# Can also be set via PLAYBOOK_DB_PATH or --db-path.
# db_path: ~/.config/playbook/playbook.db

# Assistant webhook that turns chat text into action events.
# Can also be set via PLAYBOOK_ASSISTANT_URL.
# assistant_url: https://example.invalid/webhook/playbook
# assistant_timeout: 30s

# Upper bound for a single store call made by the engine.
# remote_timeout: 10s

# HS256 secret used to verify session tokens. When empty, the token's
# claims are trusted as issued by the identity provider.
# Can also be set via PLAYBOOK_JWT_SECRET.
# jwt_secret: ""
`
