package mattermost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginTokenFromHeader(t *testing.T) {
	var loginCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/users/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding login body: %v", err)
		}
		if body.LoginID != "admin" || body.Password != "hunter2" {
			t.Errorf("login body = %+v, want admin/hunter2", body)
		}
		loginCalls++
		w.Header().Set("Token", "header-session-token")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"id": "adminid"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	token, err := client.Login(context.Background(), "admin", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "header-session-token" {
		t.Errorf("Login() = %q, want header-session-token", token)
	}
	if client.Token() != token {
		t.Errorf("client token = %q, want %q", client.Token(), token)
	}
	if loginCalls != 1 {
		t.Errorf("login requests = %d, want 1 (header strategy should not re-issue)", loginCalls)
	}
}

func TestLoginTokenFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Token header: force fallback to the body strategy.
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"token": "body-session-token"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	token, err := client.Login(context.Background(), "admin", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "body-session-token" {
		t.Errorf("Login() = %q, want body-session-token", token)
	}
}

func TestLoginAllStrategiesExhausted(t *testing.T) {
	var loginCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginCalls++
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"id": "adminid"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Login(context.Background(), "admin", "hunter2")
	if !IsAuthError(err) {
		t.Fatalf("Login() error = %v, want auth error", err)
	}
	// Strategy 3 re-issues the login to dump the raw response.
	if loginCalls != 2 {
		t.Errorf("login requests = %d, want 2", loginCalls)
	}
	if client.Token() != "" {
		t.Errorf("client token = %q, want empty after failed login", client.Token())
	}
}

func TestLoginBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "api.user.login.invalid_credentials_email_username",
			"message":     "Enter a valid email or username and/or password.",
			"status_code": 401,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Login(context.Background(), "admin", "wrong")
	if !IsAuthError(err) {
		t.Fatalf("Login() error = %v, want auth error", err)
	}
}

func TestTokenFromDump(t *testing.T) {
	tests := []struct {
		name string
		dump string
		want string
	}{
		{
			name: "token header present",
			dump: "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nToken: dump-session-token\r\n\r\n",
			want: "dump-session-token",
		},
		{
			name: "lowercase header",
			dump: "HTTP/1.1 200 OK\r\ntoken: lower-token\r\n\r\n",
			want: "lower-token",
		},
		{
			name: "no token header",
			dump: "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenFromDump([]byte(tt.dump)); got != tt.want {
				t.Errorf("tokenFromDump() = %q, want %q", got, tt.want)
			}
		})
	}
}
