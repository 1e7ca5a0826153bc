// Package mattermost provides a client for the Mattermost v4 REST API,
// covering the surface needed to bootstrap a workspace: teams, bot
// accounts, access tokens, channels, and memberships.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// APIPath is the Mattermost REST API prefix.
	APIPath = "/api/v4"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit caps request throughput. Mattermost defaults to 10
	// sustained requests per second per client.
	RateLimit = 10.0
)

// Client is a rate-limited HTTP client for the Mattermost REST API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	token      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets a pre-issued bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the Mattermost server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the server base URL without the API prefix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the bearer token currently in use.
func (c *Client) Token() string {
	return c.token
}

// SetToken replaces the bearer token, typically after Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// newRequest builds an API request with auth and content headers set.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+APIPath+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// apiErrorBody is the server's JSON error envelope.
type apiErrorBody struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// checkResponse classifies a non-2xx response into an error. The server
// embeds the authoritative failure id in the body, so the body is decoded
// rather than trusting the transport status alone.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var envelope apiErrorBody
	// Decode errors are ignored: some proxies return non-JSON bodies.
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		ID:         envelope.ID,
		Message:    envelope.Message,
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return fmt.Errorf("%w: %v", ErrAuthFailed, apiErr)
	case resp.StatusCode == 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, apiErr)
	}
	return apiErr
}

// doJSON issues a request and decodes a JSON response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	return nil
}

// Me returns the user account the current token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: /users/me missing id", ErrInvalidResponse)
	}
	return &user, nil
}

// GetTeamByName looks up a team by its slug name.
func (c *Client) GetTeamByName(ctx context.Context, name string) (*Team, error) {
	var team Team
	if err := c.doJSON(ctx, http.MethodGet, "/teams/name/"+name, nil, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// CreateTeam creates a team with the given slug, display name, and type.
func (c *Client) CreateTeam(ctx context.Context, name, displayName, teamType string) (*Team, error) {
	body := map[string]string{
		"name":         name,
		"display_name": displayName,
		"type":         teamType,
	}
	var team Team
	if err := c.doJSON(ctx, http.MethodPost, "/teams", body, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// GetUserByUsername looks up a user (including bot accounts) by username.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/users/username/"+username, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateBot creates a bot account. The returned UserID identifies the
// backing user account used for tokens and memberships.
func (c *Client) CreateBot(ctx context.Context, username, displayName, description string) (*Bot, error) {
	body := map[string]string{
		"username":     username,
		"display_name": displayName,
		"description":  description,
	}
	var bot Bot
	if err := c.doJSON(ctx, http.MethodPost, "/bots", body, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// ListUserTokens returns the access tokens attached to a user. Token
// secrets are never included; only metadata.
func (c *Client) ListUserTokens(ctx context.Context, userID string) ([]UserAccessToken, error) {
	var tokens []UserAccessToken
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+userID+"/tokens", nil, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// CreateUserToken mints a new access token for the user. This is the only
// time the secret is disclosed.
func (c *Client) CreateUserToken(ctx context.Context, userID, description string) (*UserAccessToken, error) {
	body := map[string]string{"description": description}
	var token UserAccessToken
	if err := c.doJSON(ctx, http.MethodPost, "/users/"+userID+"/tokens", body, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// GetChannelByName looks up a channel by (team id, slug name).
func (c *Client) GetChannelByName(ctx context.Context, teamID, name string) (*Channel, error) {
	var channel Channel
	if err := c.doJSON(ctx, http.MethodGet, "/teams/"+teamID+"/channels/name/"+name, nil, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// CreateChannel creates a channel and returns the server record.
func (c *Client) CreateChannel(ctx context.Context, ch *Channel) (*Channel, error) {
	var created Channel
	if err := c.doJSON(ctx, http.MethodPost, "/channels", ch, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetTeamMember checks whether a user is a member of a team.
func (c *Client) GetTeamMember(ctx context.Context, teamID, userID string) (*TeamMember, error) {
	var member TeamMember
	if err := c.doJSON(ctx, http.MethodGet, "/teams/"+teamID+"/members/"+userID, nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// AddTeamMember adds a user to a team.
func (c *Client) AddTeamMember(ctx context.Context, teamID, userID string) error {
	body := map[string]string{"team_id": teamID, "user_id": userID}
	return c.doJSON(ctx, http.MethodPost, "/teams/"+teamID+"/members", body, nil)
}

// GetChannelMember checks whether a user is a member of a channel.
func (c *Client) GetChannelMember(ctx context.Context, channelID, userID string) (*ChannelMember, error) {
	var member ChannelMember
	if err := c.doJSON(ctx, http.MethodGet, "/channels/"+channelID+"/members/"+userID, nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// AddChannelMember adds a user to a channel. The user must already be a
// member of the channel's team.
func (c *Client) AddChannelMember(ctx context.Context, channelID, userID string) error {
	body := map[string]string{"user_id": userID}
	return c.doJSON(ctx, http.MethodPost, "/channels/"+channelID+"/members", body, nil)
}

// CreateIncomingWebhook creates an incoming webhook on a channel. The hook
// URL ({base_url}/hooks/{id}) grants write access to the channel.
func (c *Client) CreateIncomingWebhook(ctx context.Context, channelID, displayName, description string) (*IncomingWebhook, error) {
	body := map[string]string{
		"channel_id":   channelID,
		"display_name": displayName,
		"description":  description,
	}
	var hook IncomingWebhook
	if err := c.doJSON(ctx, http.MethodPost, "/hooks/incoming", body, &hook); err != nil {
		return nil, err
	}
	return &hook, nil
}

// ListIncomingWebhooks returns the incoming webhooks for a team.
func (c *Client) ListIncomingWebhooks(ctx context.Context, teamID string) ([]IncomingWebhook, error) {
	var hooks []IncomingWebhook
	if err := c.doJSON(ctx, http.MethodGet, "/hooks/incoming?team_id="+teamID, nil, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

// ListSidebarCategories returns the sidebar categories for a user on a team.
func (c *Client) ListSidebarCategories(ctx context.Context, userID, teamID string) ([]SidebarCategory, error) {
	var wrapper sidebarCategories
	path := "/users/" + userID + "/teams/" + teamID + "/channels/categories"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Categories, nil
}

// CreateSidebarCategory creates a custom sidebar category.
func (c *Client) CreateSidebarCategory(ctx context.Context, cat *SidebarCategory) error {
	path := "/users/" + cat.UserID + "/teams/" + cat.TeamID + "/channels/categories"
	return c.doJSON(ctx, http.MethodPost, path, cat, nil)
}

// UpdateSidebarCategory replaces an existing sidebar category.
func (c *Client) UpdateSidebarCategory(ctx context.Context, cat *SidebarCategory) error {
	path := "/users/" + cat.UserID + "/teams/" + cat.TeamID + "/channels/categories/" + cat.ID
	return c.doJSON(ctx, http.MethodPut, path, cat, nil)
}
