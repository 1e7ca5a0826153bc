package bridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the artifact consumed by the bridge process. Field names match
// the bridge's expected JSON shape, not Go conventions.
type Config struct {
	MattermostURL string     `json:"mattermostUrl"`
	Token         string     `json:"token"`
	TeamID        string     `json:"teamId"`
	Monitoring    Monitoring `json:"monitoring"`
}

// Monitoring holds the bridge's channel-monitoring settings.
type Monitoring struct {
	Enabled      bool     `json:"enabled"`
	Schedule     string   `json:"schedule"`
	Channels     []string `json:"channels"`
	Topics       []string `json:"topics"`
	MessageLimit int      `json:"messageLimit"`
}

// DefaultMonitoring returns the monitoring defaults written when the
// operator does not override them.
func DefaultMonitoring() Monitoring {
	return Monitoring{
		Enabled:      true,
		Schedule:     "*/15 * * * *",
		Channels:     []string{"agent-alerts", "agent-digests"},
		Topics:       []string{"alerts", "digests"},
		MessageLimit: 50,
	}
}

// WriteConfig writes the config atomically: temp file in the target
// directory, then rename. The file holds a live credential, so it is
// created 0600. All values pass through the JSON encoder only; nothing is
// interpolated into an executable payload.
func WriteConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bridge config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".bridge-config-*")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing bridge config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing bridge config: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming bridge config into place: %w", err)
	}
	return nil
}
