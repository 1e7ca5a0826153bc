// Package config handles the global mmsetup configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/mmsetup/config.yml.
// Every field can be overridden by a CLI flag or environment variable.
type GlobalConfig struct {
	ServerURL        string `yaml:"server_url,omitempty"`
	LoginID          string `yaml:"login_id,omitempty"`
	AdminToken       string `yaml:"admin_token,omitempty"`
	Team             string `yaml:"team,omitempty"`
	ManifestPath     string `yaml:"manifest_path,omitempty"`
	BridgeConfigPath string `yaml:"bridge_config_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "mmsetup"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/mmsetup/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		globalConfigCache = &GlobalConfig{}
		return globalConfigCache, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Cache the absence too, so getters don't re-stat on every call.
			globalConfigCache = &GlobalConfig{}
			return globalConfigCache, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetServerURL returns the Mattermost server URL from global config.
func GetServerURL() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.ServerURL
}

// GetLoginID returns the admin login id from global config.
func GetLoginID() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.LoginID
}

// GetAdminToken returns the pre-issued admin token from global config.
func GetAdminToken() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.AdminToken
}

// GetTeam returns the default team slug from global config.
func GetTeam() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.Team
}

// GetManifestPath returns the default manifest path from global config.
func GetManifestPath() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.ManifestPath
}

// GetBridgeConfigPath returns the default bridge config output path.
func GetBridgeConfigPath() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.BridgeConfigPath
}
