// Package bridge resolves a Mattermost team id by name and emits the
// configuration file consumed by the bridge process.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds the whole resolution request.
	DefaultTimeout = 30 * time.Second

	// DefaultConnectTimeout bounds TCP connection establishment.
	DefaultConnectTimeout = 10 * time.Second

	// teamIDLength is the length of a Mattermost id. Anything shorter in
	// the response is treated as implausible rather than trusted.
	teamIDLength = 26
)

// Resolution errors, classified by what the operator should fix.
var (
	// ErrCredential indicates the token was rejected (401/403).
	ErrCredential = errors.New("bridge resolver: credential rejected")

	// ErrTeamNotFound indicates no team exists with the given name (404).
	ErrTeamNotFound = errors.New("bridge resolver: team not found")

	// ErrServer indicates a server-side or protocol failure.
	ErrServer = errors.New("bridge resolver: server error")

	// ErrTimeout indicates the request or connection timed out. Not
	// auto-retried; re-run once the server is reachable.
	ErrTimeout = errors.New("bridge resolver: request timed out")
)

// Resolver looks up team ids over the Mattermost REST API.
type Resolver struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTimeouts overrides the overall and connect timeouts.
func WithTimeouts(total, connect time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = newHTTPClient(total, connect)
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = hc
	}
}

// NewResolver creates a resolver for the server at baseURL using the given
// bearer token.
func NewResolver(baseURL, token string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		httpClient: newHTTPClient(DefaultTimeout, DefaultConnectTimeout),
		baseURL:    baseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newHTTPClient(total, connect time.Duration) *http.Client {
	return &http.Client{
		Timeout: total,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connect}).DialContext,
		},
	}
}

// ResolveTeamID resolves a team's id by its slug name. The HTTP status is
// checked explicitly before any parsing, and a 200 body is still rejected
// if it carries an error envelope or an implausibly short id — some server
// versions return 200 with an error object.
func (r *Resolver) ResolveTeamID(ctx context.Context, teamName string) (string, error) {
	url := fmt.Sprintf("%s/api/v4/teams/name/%s", r.baseURL, teamName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrServer, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w (status %d)", ErrCredential, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: no team named %q", ErrTeamNotFound, teamName)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
		// Error envelope fields. Populated only when the server returned
		// an error object despite the 200 status.
		Message    string `json:"message"`
		StatusCode int    `json:"status_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: parsing team response: %v", ErrServer, err)
	}

	if body.Message != "" && body.StatusCode != 0 {
		return "", fmt.Errorf("%w: %s", ErrServer, body.Message)
	}
	if len(body.ID) < teamIDLength {
		return "", fmt.Errorf("%w: implausible team id %q", ErrServer, body.ID)
	}
	return body.ID, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
