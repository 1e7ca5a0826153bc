package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validTeamID = "abcdefghijklmnopqrstuvwxyz" // 26 chars

func TestResolveTeamID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/teams/name/agents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": validTeamID, "name": "agents"})
	}))
	defer server.Close()

	resolver := NewResolver(server.URL, "tok")
	id, err := resolver.ResolveTeamID(context.Background(), "agents")
	if err != nil {
		t.Fatalf("ResolveTeamID() error = %v", err)
	}
	if id != validTeamID {
		t.Errorf("id = %q, want %q", id, validTeamID)
	}
}

func TestResolveTeamIDClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{
			name:    "401 means bad credential",
			status:  401,
			body:    map[string]any{"id": "api.context.session_expired.app_error", "message": "expired", "status_code": 401},
			wantErr: ErrCredential,
		},
		{
			name:    "403 means bad credential",
			status:  403,
			body:    map[string]any{"message": "forbidden", "status_code": 403},
			wantErr: ErrCredential,
		},
		{
			name:    "404 means team not found",
			status:  404,
			body:    map[string]any{"message": "no such team", "status_code": 404},
			wantErr: ErrTeamNotFound,
		},
		{
			name:    "500 means server error",
			status:  500,
			body:    map[string]any{"message": "boom", "status_code": 500},
			wantErr: ErrServer,
		},
		{
			name:    "200 with error envelope",
			status:  200,
			body:    map[string]any{"id": "api.team.get.app_error", "message": "context deadline", "status_code": 500},
			wantErr: ErrServer,
		},
		{
			name:    "200 with implausibly short id",
			status:  200,
			body:    map[string]any{"id": "short"},
			wantErr: ErrServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			resolver := NewResolver(server.URL, "tok")
			_, err := resolver.ResolveTeamID(context.Background(), "agents")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveTeamIDTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"id": validTeamID})
	}))
	defer server.Close()

	resolver := NewResolver(server.URL, "tok", WithTimeouts(20*time.Millisecond, 10*time.Millisecond))
	_, err := resolver.ResolveTeamID(context.Background(), "agents")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want %v", err, ErrTimeout)
	}
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge-config.json")
	cfg := &Config{
		MattermostURL: "https://chat.example.com",
		Token:         "tok",
		TeamID:        validTeamID,
		Monitoring:    DefaultMonitoring(),
	}

	if err := WriteConfig(path, cfg); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parsing config: %v", err)
	}
	if loaded.TeamID != validTeamID || loaded.MattermostURL != cfg.MattermostURL {
		t.Errorf("loaded = %+v", loaded)
	}
	if !loaded.Monitoring.Enabled || loaded.Monitoring.MessageLimit != 50 {
		t.Errorf("monitoring = %+v", loaded.Monitoring)
	}

	// The expected consumer-facing key names, not Go field names.
	for _, key := range []string{"mattermostUrl", "teamId", "messageLimit"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("config missing key %q", key)
		}
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the config", len(entries))
	}
}

func TestResolveFailureWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		json.NewEncoder(w).Encode(map[string]any{"message": "no such team", "status_code": 404})
	}))
	defer server.Close()

	dir := t.TempDir()
	resolver := NewResolver(server.URL, "tok")
	_, err := resolver.ResolveTeamID(context.Background(), "ghost-team")
	if !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("error = %v, want ErrTeamNotFound", err)
	}

	// The caller only writes after a successful resolve; the directory
	// must stay empty on failure.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("output directory not empty after failed resolve")
	}
}
