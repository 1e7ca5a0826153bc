package provision

// Resource statuses reported in the run summary.
const (
	StatusCreated = "created"
	StatusExists  = "exists"
	StatusFailed  = "failed"
	StatusPlanned = "planned" // dry-run only
)

// ResourceResult is the outcome for one team, channel, or webhook.
type ResourceResult struct {
	Name   string `json:"name"`
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// BotResult is the outcome for one bot account and its access token.
type BotResult struct {
	Username    string `json:"username"`
	UserID      string `json:"user_id,omitempty"`
	Status      string `json:"status"`
	Token       string `json:"token,omitempty"` // minted | exists | failed
	TokenSecret string `json:"token_secret,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// MembershipStats counts membership synchronization outcomes.
type MembershipStats struct {
	TeamJoined      int `json:"team_joined"`
	TeamExisting    int `json:"team_existing"`
	ChannelJoined   int `json:"channel_joined"`
	ChannelExisting int `json:"channel_existing"`
	Failed          int `json:"failed"`
}

// Summary is the full result of one provisioning run. It reports exactly
// what happened per resource; failed resources are never folded into
// success counts.
type Summary struct {
	Team        ResourceResult   `json:"team"`
	Bots        []BotResult      `json:"bots"`
	Channels    []ResourceResult `json:"channels"`
	Memberships MembershipStats  `json:"memberships"`
	Webhooks    []ResourceResult `json:"webhooks,omitempty"`
	Sidebar     *ResourceResult  `json:"sidebar,omitempty"`
	DryRun      bool             `json:"dry_run,omitempty"`
}

// Failed reports whether any resource, token, or membership operation
// failed. Webhook and sidebar failures are excluded: both are best-effort
// extras that may be disabled in the system console.
func (s *Summary) Failed() bool {
	if s.Team.Status == StatusFailed {
		return true
	}
	for _, b := range s.Bots {
		if b.Status == StatusFailed || b.Token == TokenFailed.String() {
			return true
		}
	}
	for _, ch := range s.Channels {
		if ch.Status == StatusFailed {
			return true
		}
	}
	return s.Memberships.Failed > 0
}
