// Package provision implements idempotent workspace bootstrapping against
// a Mattermost server: team, bot accounts, access tokens, channels, and
// full bot-to-channel membership. Every resource is looked up by natural
// key before creation, so repeated runs never duplicate anything.
package provision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes the desired workspace layout.
type Manifest struct {
	Mattermost ServerSettings `yaml:"mattermost"`
	Bots       []BotSpec      `yaml:"bots"`
	Channels   []ChannelSpec  `yaml:"channels"`
	// SidebarCategory, when set, groups all provisioned channels under a
	// custom sidebar category for the admin user.
	SidebarCategory string `yaml:"sidebar_category,omitempty"`
}

// ServerSettings is the optional mattermost block in the manifest. All
// fields can be overridden by CLI flags or environment variables.
type ServerSettings struct {
	URL             string `yaml:"url,omitempty"`
	Team            string `yaml:"team,omitempty"`
	TeamDisplayName string `yaml:"team_display_name,omitempty"`
}

// BotSpec describes one bot account to provision.
type BotSpec struct {
	Username    string `yaml:"username"`
	DisplayName string `yaml:"display_name,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ChannelSpec describes one channel to provision.
type ChannelSpec struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name,omitempty"`
	Purpose     string `yaml:"purpose,omitempty"`
	Private     bool   `yaml:"private,omitempty"`
	// Bots restricts membership to the named bots. Empty means every bot
	// in the manifest joins this channel.
	Bots []string `yaml:"bots,omitempty"`
	// Webhook requests an incoming webhook for this channel.
	Webhook bool `yaml:"webhook,omitempty"`
}

// LoadManifest reads and validates a workspace manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the manifest for structural problems.
func (m *Manifest) Validate() error {
	if len(m.Bots) == 0 {
		return fmt.Errorf("manifest must define at least one bot")
	}
	if len(m.Channels) == 0 {
		return fmt.Errorf("manifest must define at least one channel")
	}

	known := make(map[string]bool, len(m.Bots))
	for i, bot := range m.Bots {
		if bot.Username == "" {
			return fmt.Errorf("bot entry %d missing username", i+1)
		}
		if known[bot.Username] {
			return fmt.Errorf("duplicate bot username %q", bot.Username)
		}
		known[bot.Username] = true
	}

	seen := make(map[string]bool, len(m.Channels))
	for i, ch := range m.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channel entry %d missing name", i+1)
		}
		if seen[ch.Name] {
			return fmt.Errorf("duplicate channel name %q", ch.Name)
		}
		seen[ch.Name] = true
		for _, b := range ch.Bots {
			if !known[b] {
				return fmt.Errorf("channel %q references unknown bot %q", ch.Name, b)
			}
		}
	}
	return nil
}

// ChannelBots returns the usernames that should be members of the channel.
func (m *Manifest) ChannelBots(ch ChannelSpec) []string {
	if len(ch.Bots) > 0 {
		return ch.Bots
	}
	names := make([]string, len(m.Bots))
	for i, bot := range m.Bots {
		names[i] = bot.Username
	}
	return names
}

// DefaultManifest returns the built-in roster used when no manifest file is
// given: six bots and six public channels, all bots in all channels.
func DefaultManifest() *Manifest {
	return &Manifest{
		Mattermost: ServerSettings{
			Team:            "agents",
			TeamDisplayName: "Agents",
		},
		Bots: []BotSpec{
			{Username: "triage-bot", DisplayName: "Triage Bot", Description: "Routes incoming issues to the right channel"},
			{Username: "deploy-bot", DisplayName: "Deploy Bot", Description: "Announces deploys and rollbacks"},
			{Username: "alerts-bot", DisplayName: "Alerts Bot", Description: "Forwards monitoring alerts"},
			{Username: "digest-bot", DisplayName: "Digest Bot", Description: "Posts daily activity digests"},
			{Username: "standup-bot", DisplayName: "Standup Bot", Description: "Collects async standup updates"},
			{Username: "qa-bot", DisplayName: "QA Bot", Description: "Reports test and review status"},
		},
		Channels: []ChannelSpec{
			{Name: "agent-general", DisplayName: "Agent General", Purpose: "Cross-team agent coordination"},
			{Name: "agent-ops", DisplayName: "Agent Ops", Purpose: "Operational chatter and runbooks"},
			{Name: "agent-alerts", DisplayName: "Agent Alerts", Purpose: "Monitoring alerts", Webhook: true},
			{Name: "agent-deploys", DisplayName: "Agent Deploys", Purpose: "Deploy announcements", Webhook: true},
			{Name: "agent-digests", DisplayName: "Agent Digests", Purpose: "Daily digests"},
			{Name: "agent-standups", DisplayName: "Agent Standups", Purpose: "Async standups"},
		},
		SidebarCategory: "Agents",
	}
}
