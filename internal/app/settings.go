package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DBPath           string `yaml:"db_path"`
	SessionPath      string `yaml:"session_path"`
	AssistantURL     string `yaml:"assistant_url"`
	AssistantTimeout string `yaml:"assistant_timeout"`
	RemoteTimeout    string `yaml:"remote_timeout"`
	JWTSecret        string `yaml:"jwt_secret"`
}

// RuntimeSettings are effective values after env overrides and defaults.
type RuntimeSettings struct {
	AssistantURL     string        `json:"assistant_url"`
	AssistantTimeout time.Duration `json:"assistant_timeout"`
	RemoteTimeout    time.Duration `json:"remote_timeout"`
	JWTSecret        string        `json:"-"`
}

const (
	defaultAssistantTimeout = 30 * time.Second
	defaultRemoteTimeout    = 10 * time.Second
	maxTimeout              = 5 * time.Minute
)

// EffectiveRuntimeSettings returns validated runtime settings with defaults.
// Invalid or missing config values fall back to safe defaults.
func EffectiveRuntimeSettings() RuntimeSettings {
	cfg := RuntimeSettings{
		AssistantTimeout: defaultAssistantTimeout,
		RemoteTimeout:    defaultRemoteTimeout,
	}

	if s, err := LoadSettings(); err == nil {
		cfg.AssistantURL = s.AssistantURL
		cfg.JWTSecret = s.JWTSecret
		cfg.AssistantTimeout = parseTimeout(s.AssistantTimeout, cfg.AssistantTimeout)
		cfg.RemoteTimeout = parseTimeout(s.RemoteTimeout, cfg.RemoteTimeout)
	}

	if v := os.Getenv("PLAYBOOK_ASSISTANT_URL"); v != "" {
		cfg.AssistantURL = v
	}
	if v := os.Getenv("PLAYBOOK_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	return cfg
}

func parseTimeout(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	if d > maxTimeout {
		return maxTimeout
	}
	return d
}

// LoadEnvFile loads KEY=VALUE pairs from ./.env into the process environment.
// Existing variables win. A missing file is not an error.
func LoadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// dbPathOverrideMu and dbPathOverride implement a mutex-protected process-wide override for CLI --db-path.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	dbPathOverrideMu sync.RWMutex
	dbPathOverride   string
)

// SetDBPathOverride sets a process-wide database path override.
// Intended for CLI flag support (e.g. --db-path).
func SetDBPathOverride(path string) {
	dbPathOverrideMu.Lock()
	dbPathOverride = path
	dbPathOverrideMu.Unlock()
}

func getDBPathOverride() string {
	dbPathOverrideMu.RLock()
	v := dbPathOverride
	dbPathOverrideMu.RUnlock()
	return v
}

// configPaths lists config files in lookup order (first found wins):
// 1) ~/.config/playbook/config.yaml
// 2) /etc/playbook/config.yaml
// 3) ./config.yaml
func configPaths() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(string(os.PathSeparator), "etc", "playbook", "config.yaml"),
		"config.yaml",
	}, nil
}

// LoadSettings loads configuration once using the documented lookup order.
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		paths, err := configPaths()
		if err != nil {
			settingsErr = err
			return
		}
		for _, p := range paths {
			s, err := loadSettingsFile(p)
			if err == nil {
				settings = s
				return
			}
			if !errors.Is(err, os.ErrNotExist) {
				settingsErr = err
				return
			}
		}
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the fixed lookup list
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
