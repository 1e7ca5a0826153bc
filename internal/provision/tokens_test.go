package provision

import (
	"context"
	"testing"
)

func TestProvisionTokenFresh(t *testing.T) {
	fake := newFakeMattermost()
	engine := newTestEngine(t, fake)

	result := engine.provisionToken(context.Background(), "user1", "triage-bot")
	if result.Outcome != TokenMinted {
		t.Fatalf("outcome = %v, want minted", result.Outcome)
	}
	if result.Secret == "" {
		t.Error("minted token missing secret")
	}
}

func TestProvisionTokenAlreadyExists(t *testing.T) {
	fake := newFakeMattermost()
	engine := newTestEngine(t, fake)

	first := engine.provisionToken(context.Background(), "user1", "triage-bot")
	if first.Outcome != TokenMinted {
		t.Fatalf("first outcome = %v, want minted", first.Outcome)
	}

	second := engine.provisionToken(context.Background(), "user1", "triage-bot")
	if second.Outcome != TokenExists {
		t.Fatalf("second outcome = %v, want exists", second.Outcome)
	}
	if second.Secret != "" {
		t.Error("exists outcome must not carry a secret")
	}
	// The existence check must prevent a second mint.
	if n := len(fake.tokens["user1"]); n != 1 {
		t.Errorf("tokens = %d, want 1", n)
	}
}

func TestProvisionTokenMintDisabled(t *testing.T) {
	fake := newFakeMattermost()
	fake.failTokenCreate = true
	engine := newTestEngine(t, fake)

	result := engine.provisionToken(context.Background(), "user1", "triage-bot")
	if result.Outcome != TokenFailed {
		t.Fatalf("outcome = %v, want failed", result.Outcome)
	}
	if result.Err == nil {
		t.Error("failed outcome missing error")
	}
}

func TestTokenOutcomeString(t *testing.T) {
	tests := []struct {
		outcome TokenOutcome
		want    string
	}{
		{TokenMinted, "minted"},
		{TokenExists, "exists"},
		{TokenFailed, "failed"},
		{TokenOutcome(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("TokenOutcome(%d).String() = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}
