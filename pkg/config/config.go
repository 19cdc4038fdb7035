package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	xdgAppName = "taskmedal"
	configFile = "config.json"

	// Storage backends for the durable key-value store.
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	// Backend selects the durable store implementation: "file" or "sqlite".
	Backend string `json:"backend"`
	// DataDir overrides where persisted state lives. Empty means the
	// config directory itself.
	DataDir string `json:"dataDir,omitempty"`
}

func GetConfigPath() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName, configFile), nil
}

func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Backend: BackendFile}, nil // Default
		}
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendFile
	}
	if cfg.Backend != BackendFile && cfg.Backend != BackendSQLite {
		return nil, fmt.Errorf("unknown storage backend %q in config", cfg.Backend)
	}
	return &cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
