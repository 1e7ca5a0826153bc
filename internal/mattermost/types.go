package mattermost

// Team visibility types.
const (
	TeamOpen   = "O" // Anyone on the server can join
	TeamInvite = "I" // Invite only
)

// Channel visibility types.
const (
	ChannelPublic  = "O"
	ChannelPrivate = "P"
)

// Team is a Mattermost team record.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// User is a Mattermost user record. Bot accounts are users too.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// Bot is the record returned by the bot management endpoints.
// UserID is the id of the backing user account.
type Bot struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Channel is a Mattermost channel record.
type Channel struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Purpose     string `json:"purpose,omitempty"`
	Type        string `json:"type"`
}

// UserAccessToken is a personal access token attached to a user account.
// The Token value is only populated in the creation response; the server
// never re-discloses it on subsequent reads.
type UserAccessToken struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	Token       string `json:"token,omitempty"`
}

// TeamMember is a team membership record.
type TeamMember struct {
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
}

// ChannelMember is a channel membership record.
type ChannelMember struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

// IncomingWebhook is an incoming webhook record. The hook URL is derived
// from the id: {base_url}/hooks/{id}.
type IncomingWebhook struct {
	ID          string `json:"id"`
	ChannelID   string `json:"channel_id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// SidebarCategory is a custom sidebar grouping for one user on one team.
type SidebarCategory struct {
	ID          string   `json:"id,omitempty"`
	UserID      string   `json:"user_id"`
	TeamID      string   `json:"team_id"`
	Type        string   `json:"type"`
	DisplayName string   `json:"display_name"`
	ChannelIDs  []string `json:"channel_ids"`
}

// sidebarCategories is the wrapper returned by the category list endpoint.
type sidebarCategories struct {
	Categories []SidebarCategory `json:"categories"`
}
