package provision

import (
	"context"

	"github.com/teamforge/mmsetup/internal/mattermost"
)

// ensureTeamMember makes userID a member of the team. Returns true if a
// join request was issued, false if the user was already a member.
func (e *Engine) ensureTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	if _, err := e.client.GetTeamMember(ctx, teamID, userID); err == nil {
		return false, nil
	}

	err := e.client.AddTeamMember(ctx, teamID, userID)
	if err == nil {
		return true, nil
	}
	if mattermost.IsAlreadyExists(err) {
		return false, nil
	}
	return false, err
}

// ensureChannelMember makes userID a member of the channel. The user must
// already be a team member; the engine orders team joins before channel
// joins for that reason.
func (e *Engine) ensureChannelMember(ctx context.Context, channelID, userID string) (bool, error) {
	if _, err := e.client.GetChannelMember(ctx, channelID, userID); err == nil {
		return false, nil
	}

	err := e.client.AddChannelMember(ctx, channelID, userID)
	if err == nil {
		return true, nil
	}
	if mattermost.IsAlreadyExists(err) {
		return false, nil
	}
	return false, err
}
