package provision

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeManifest writes manifest YAML to a temp file and returns its path.
func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspace.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
mattermost:
  url: https://chat.example.com
  team: agents
bots:
  - username: triage-bot
    display_name: Triage Bot
  - username: qa-bot
channels:
  - name: agent-ops
    purpose: Operational chatter
    webhook: true
  - name: agent-secrets
    private: true
    bots: [triage-bot]
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Mattermost.Team != "agents" {
		t.Errorf("team = %q", m.Mattermost.Team)
	}
	if len(m.Bots) != 2 || len(m.Channels) != 2 {
		t.Fatalf("bots/channels = %d/%d, want 2/2", len(m.Bots), len(m.Channels))
	}
	if !m.Channels[0].Webhook {
		t.Error("channel webhook flag not parsed")
	}
	if !m.Channels[1].Private {
		t.Error("channel private flag not parsed")
	}
}

func TestLoadManifestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no bots",
			content: "channels:\n  - name: a\n",
			wantErr: "at least one bot",
		},
		{
			name:    "no channels",
			content: "bots:\n  - username: a\n",
			wantErr: "at least one channel",
		},
		{
			name:    "bot missing username",
			content: "bots:\n  - display_name: X\nchannels:\n  - name: a\n",
			wantErr: "missing username",
		},
		{
			name:    "duplicate bot",
			content: "bots:\n  - username: a\n  - username: a\nchannels:\n  - name: c\n",
			wantErr: "duplicate bot",
		},
		{
			name:    "duplicate channel",
			content: "bots:\n  - username: a\nchannels:\n  - name: c\n  - name: c\n",
			wantErr: "duplicate channel",
		},
		{
			name:    "unknown bot reference",
			content: "bots:\n  - username: a\nchannels:\n  - name: c\n    bots: [ghost]\n",
			wantErr: "unknown bot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestChannelBots(t *testing.T) {
	m := &Manifest{
		Bots: []BotSpec{{Username: "a"}, {Username: "b"}, {Username: "c"}},
		Channels: []ChannelSpec{
			{Name: "open"},
			{Name: "restricted", Bots: []string{"b"}},
		},
	}

	if got := m.ChannelBots(m.Channels[0]); len(got) != 3 {
		t.Errorf("unrestricted channel bots = %v, want all 3", got)
	}
	if got := m.ChannelBots(m.Channels[1]); len(got) != 1 || got[0] != "b" {
		t.Errorf("restricted channel bots = %v, want [b]", got)
	}
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	if err := m.Validate(); err != nil {
		t.Fatalf("default manifest invalid: %v", err)
	}
	if len(m.Bots) != 6 {
		t.Errorf("default bots = %d, want 6", len(m.Bots))
	}
	if len(m.Channels) != 6 {
		t.Errorf("default channels = %d, want 6", len(m.Channels))
	}
	for _, ch := range m.Channels {
		if ch.Private {
			t.Errorf("default channel #%s is private, want public", ch.Name)
		}
	}
}
