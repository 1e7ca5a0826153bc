package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/teamforge/mmsetup/internal/mattermost"
)

// Recorder receives an audit record for every resource action the engine
// takes. Records are write-only: the engine never reads them back, so the
// journal has no influence on reconciliation decisions.
type Recorder interface {
	Record(kind, name, action, outcome, detail string)
}

// Engine runs one provisioning pass. It owns the transient id maps
// (username to user id, channel name to channel id); both are rebuilt from
// the server on every run and discarded afterwards — that rebuild is what
// makes repeated runs idempotent without local state.
type Engine struct {
	client   *mattermost.Client
	recorder Recorder
	out      io.Writer
	errOut   io.Writer
	dryRun   bool

	teamID     string
	userIDs    map[string]string
	channelIDs map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder attaches an audit recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithOutput redirects progress output (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.out = w
	}
}

// WithErrOutput redirects warning output (default os.Stderr).
func WithErrOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.errOut = w
	}
}

// WithDryRun makes Run print the plan without issuing any API calls.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// NewEngine creates a provisioning engine backed by the given client.
func NewEngine(client *mattermost.Client, opts ...Option) *Engine {
	e := &Engine{
		client:     client,
		out:        os.Stdout,
		errOut:     os.Stderr,
		userIDs:    make(map[string]string),
		channelIDs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) record(kind, name, action, outcome, detail string) {
	if e.recorder != nil {
		e.recorder.Record(kind, name, action, outcome, detail)
	}
}

func (e *Engine) warnf(format string, args ...any) {
	fmt.Fprintf(e.errOut, "warning: "+format+"\n", args...)
}

// Run provisions the workspace described by the manifest: team, bots,
// tokens, team membership, channels, channel membership, then the
// best-effort extras (webhooks, sidebar category). Individual bot or
// channel failures are reported in the summary and do not abort the run;
// a team failure does, since everything else hangs off the team id.
func (e *Engine) Run(ctx context.Context, m *Manifest) (*Summary, error) {
	if e.dryRun {
		return e.plan(m), nil
	}

	summary := &Summary{}

	teamName := m.Mattermost.Team
	teamDisplay := m.Mattermost.TeamDisplayName
	if teamDisplay == "" {
		teamDisplay = teamName
	}

	teamID, created, err := reconcile(ctx, "team", teamName,
		func(ctx context.Context) (string, error) {
			team, err := e.client.GetTeamByName(ctx, teamName)
			if err != nil {
				return "", err
			}
			return team.ID, nil
		},
		func(ctx context.Context) (string, error) {
			team, err := e.client.CreateTeam(ctx, teamName, teamDisplay, mattermost.TeamOpen)
			if err != nil {
				return "", err
			}
			return team.ID, nil
		})
	if err != nil {
		summary.Team = ResourceResult{Name: teamName, Status: StatusFailed, Detail: err.Error()}
		e.record("team", teamName, "reconcile", StatusFailed, err.Error())
		return summary, err
	}
	e.teamID = teamID
	summary.Team = ResourceResult{Name: teamName, ID: teamID, Status: statusFor(created)}
	e.record("team", teamName, "reconcile", summary.Team.Status, teamID)
	fmt.Fprintf(e.out, "Team: %s (id: %s)\n", teamName, teamID)

	e.provisionBots(ctx, m, summary)
	e.provisionChannels(ctx, m, summary)
	e.syncChannelMembers(ctx, m, summary)
	e.provisionWebhooks(ctx, m, summary)
	e.provisionSidebar(ctx, m, summary)

	return summary, nil
}

// provisionBots reconciles each bot account, provisions its access token,
// and ensures team membership. Failures are per-bot; the loop continues.
func (e *Engine) provisionBots(ctx context.Context, m *Manifest, summary *Summary) {
	for _, spec := range m.Bots {
		spec := spec
		userID, created, err := reconcile(ctx, "bot", spec.Username,
			func(ctx context.Context) (string, error) {
				user, err := e.client.GetUserByUsername(ctx, spec.Username)
				if err != nil {
					return "", err
				}
				return user.ID, nil
			},
			func(ctx context.Context) (string, error) {
				bot, err := e.client.CreateBot(ctx, spec.Username, spec.DisplayName, spec.Description)
				if err != nil {
					return "", err
				}
				return bot.UserID, nil
			})
		if err != nil {
			e.warnf("%v", err)
			summary.Bots = append(summary.Bots, BotResult{Username: spec.Username, Status: StatusFailed, Detail: err.Error()})
			e.record("bot", spec.Username, "reconcile", StatusFailed, err.Error())
			continue
		}
		e.userIDs[spec.Username] = userID

		result := BotResult{Username: spec.Username, UserID: userID, Status: statusFor(created)}
		fmt.Fprintf(e.out, "  @%s  %s (id: %s)\n", spec.Username, verbFor(created), userID)
		e.record("bot", spec.Username, "reconcile", result.Status, userID)

		token := e.provisionToken(ctx, userID, spec.Username)
		result.Token = token.Outcome.String()
		switch token.Outcome {
		case TokenMinted:
			result.TokenSecret = token.Secret
			fmt.Fprintf(e.out, "  @%s  token minted\n", spec.Username)
		case TokenExists:
			// The platform never rediscloses secrets; revoke and
			// regenerate through the system console to recover.
			fmt.Fprintf(e.out, "  @%s  token already exists (secret not retrievable)\n", spec.Username)
		case TokenFailed:
			result.Detail = token.Err.Error()
			e.warnf("minting token for @%s: %v", spec.Username, token.Err)
		}
		e.record("token", spec.Username, "provision", token.Outcome.String(), result.Detail)

		// Team membership must precede channel membership.
		joined, err := e.ensureTeamMember(ctx, e.teamID, userID)
		switch {
		case err != nil:
			e.warnf("adding @%s to team: %v", spec.Username, err)
			summary.Memberships.Failed++
			e.record("team_member", spec.Username, "join", StatusFailed, err.Error())
		case joined:
			summary.Memberships.TeamJoined++
			e.record("team_member", spec.Username, "join", StatusCreated, "")
		default:
			summary.Memberships.TeamExisting++
			e.record("team_member", spec.Username, "join", StatusExists, "")
		}

		summary.Bots = append(summary.Bots, result)
	}
}

// provisionChannels reconciles each channel. Failures are per-channel.
func (e *Engine) provisionChannels(ctx context.Context, m *Manifest, summary *Summary) {
	for _, spec := range m.Channels {
		spec := spec
		channelType := mattermost.ChannelPublic
		if spec.Private {
			channelType = mattermost.ChannelPrivate
		}
		displayName := spec.DisplayName
		if displayName == "" {
			displayName = spec.Name
		}

		channelID, created, err := reconcile(ctx, "channel", spec.Name,
			func(ctx context.Context) (string, error) {
				ch, err := e.client.GetChannelByName(ctx, e.teamID, spec.Name)
				if err != nil {
					return "", err
				}
				return ch.ID, nil
			},
			func(ctx context.Context) (string, error) {
				ch, err := e.client.CreateChannel(ctx, &mattermost.Channel{
					TeamID:      e.teamID,
					Name:        spec.Name,
					DisplayName: displayName,
					Purpose:     spec.Purpose,
					Type:        channelType,
				})
				if err != nil {
					return "", err
				}
				return ch.ID, nil
			})
		if err != nil {
			e.warnf("%v", err)
			summary.Channels = append(summary.Channels, ResourceResult{Name: spec.Name, Status: StatusFailed, Detail: err.Error()})
			e.record("channel", spec.Name, "reconcile", StatusFailed, err.Error())
			continue
		}
		e.channelIDs[spec.Name] = channelID
		summary.Channels = append(summary.Channels, ResourceResult{Name: spec.Name, ID: channelID, Status: statusFor(created)})
		fmt.Fprintf(e.out, "  #%s  %s (id: %s)\n", spec.Name, verbFor(created), channelID)
		e.record("channel", spec.Name, "reconcile", statusFor(created), channelID)
	}
}

// syncChannelMembers ensures every provisioned bot is a member of every
// channel assigned to it. Per-pair failures are counted and skipped.
func (e *Engine) syncChannelMembers(ctx context.Context, m *Manifest, summary *Summary) {
	for _, ch := range m.Channels {
		channelID, ok := e.channelIDs[ch.Name]
		if !ok {
			continue
		}
		for _, username := range m.ChannelBots(ch) {
			userID, ok := e.userIDs[username]
			if !ok {
				continue
			}
			pair := username + " -> " + ch.Name
			joined, err := e.ensureChannelMember(ctx, channelID, userID)
			switch {
			case err != nil:
				e.warnf("adding @%s to #%s: %v", username, ch.Name, err)
				summary.Memberships.Failed++
				e.record("channel_member", pair, "join", StatusFailed, err.Error())
			case joined:
				fmt.Fprintf(e.out, "    + @%s joined #%s\n", username, ch.Name)
				summary.Memberships.ChannelJoined++
				e.record("channel_member", pair, "join", StatusCreated, "")
			default:
				summary.Memberships.ChannelExisting++
				e.record("channel_member", pair, "join", StatusExists, "")
			}
		}
	}
}

// provisionWebhooks creates incoming webhooks for flagged channels,
// skipping channels that already have one so reruns do not accumulate
// hooks. Non-fatal: webhook creation may be disabled in the system console.
func (e *Engine) provisionWebhooks(ctx context.Context, m *Manifest, summary *Summary) {
	hasHook := make(map[string]bool)
	existing, err := e.client.ListIncomingWebhooks(ctx, e.teamID)
	if err != nil {
		e.warnf("listing incoming webhooks: %v", err)
	}
	for _, hook := range existing {
		hasHook[hook.ChannelID] = true
	}

	for _, ch := range m.Channels {
		if !ch.Webhook {
			continue
		}
		channelID, ok := e.channelIDs[ch.Name]
		if !ok {
			continue
		}
		if hasHook[channelID] {
			summary.Webhooks = append(summary.Webhooks, ResourceResult{Name: ch.Name, Status: StatusExists})
			e.record("webhook", ch.Name, "create", StatusExists, "")
			continue
		}
		hook, err := e.client.CreateIncomingWebhook(ctx, channelID, "#"+ch.Name, "Incoming webhook for #"+ch.Name)
		if err != nil {
			e.warnf("creating webhook for #%s: %v", ch.Name, err)
			summary.Webhooks = append(summary.Webhooks, ResourceResult{Name: ch.Name, Status: StatusFailed, Detail: err.Error()})
			e.record("webhook", ch.Name, "create", StatusFailed, err.Error())
			continue
		}
		summary.Webhooks = append(summary.Webhooks, ResourceResult{Name: ch.Name, ID: hook.ID, Status: StatusCreated})
		// The hook URL grants write access to the channel — store it
		// securely, do not commit.
		fmt.Fprintf(e.out, "    webhook #%s [SECRET URL]: %s/hooks/%s\n", ch.Name, e.client.BaseURL(), hook.ID)
		e.record("webhook", ch.Name, "create", StatusCreated, hook.ID)
	}
}

// provisionSidebar groups the provisioned channels under a custom sidebar
// category for the admin user. Non-fatal: warns, records the failure in the
// summary, and returns on any error.
func (e *Engine) provisionSidebar(ctx context.Context, m *Manifest, summary *Summary) {
	if m.SidebarCategory == "" || len(e.channelIDs) == 0 {
		return
	}

	me, err := e.client.Me(ctx)
	if err != nil {
		e.warnf("resolving admin user for sidebar setup: %v", err)
		summary.Sidebar = &ResourceResult{Name: m.SidebarCategory, Status: StatusFailed, Detail: err.Error()}
		return
	}

	categories, err := e.client.ListSidebarCategories(ctx, me.ID, e.teamID)
	if err != nil {
		e.warnf("reading sidebar categories: %v", err)
		summary.Sidebar = &ResourceResult{Name: m.SidebarCategory, Status: StatusFailed, Detail: err.Error()}
		return
	}

	channelIDs := make([]string, 0, len(e.channelIDs))
	for _, ch := range m.Channels {
		if id, ok := e.channelIDs[ch.Name]; ok {
			channelIDs = append(channelIDs, id)
		}
	}

	for i := range categories {
		cat := &categories[i]
		if !strings.EqualFold(cat.DisplayName, m.SidebarCategory) {
			continue
		}
		// Merge new channel ids into the existing category.
		have := make(map[string]bool, len(cat.ChannelIDs))
		for _, id := range cat.ChannelIDs {
			have[id] = true
		}
		for _, id := range channelIDs {
			if !have[id] {
				cat.ChannelIDs = append(cat.ChannelIDs, id)
			}
		}
		if err := e.client.UpdateSidebarCategory(ctx, cat); err != nil {
			e.warnf("updating sidebar category %q: %v", m.SidebarCategory, err)
			summary.Sidebar = &ResourceResult{Name: m.SidebarCategory, Status: StatusFailed, Detail: err.Error()}
			return
		}
		fmt.Fprintf(e.out, "  sidebar %q updated\n", m.SidebarCategory)
		summary.Sidebar = &ResourceResult{Name: m.SidebarCategory, ID: cat.ID, Status: StatusExists}
		e.record("sidebar", m.SidebarCategory, "update", StatusExists, "")
		return
	}

	cat := &mattermost.SidebarCategory{
		UserID:      me.ID,
		TeamID:      e.teamID,
		Type:        "custom",
		DisplayName: m.SidebarCategory,
		ChannelIDs:  channelIDs,
	}
	if err := e.client.CreateSidebarCategory(ctx, cat); err != nil {
		e.warnf("creating sidebar category %q: %v", m.SidebarCategory, err)
		summary.Sidebar = &ResourceResult{Name: m.SidebarCategory, Status: StatusFailed, Detail: err.Error()}
		return
	}
	fmt.Fprintf(e.out, "  sidebar %q created\n", m.SidebarCategory)
	summary.Sidebar = &ResourceResult{Name: m.SidebarCategory, Status: StatusCreated}
	e.record("sidebar", m.SidebarCategory, "create", StatusCreated, "")
}

// plan produces the dry-run summary: every resource marked planned, no
// network calls, placeholder ids.
func (e *Engine) plan(m *Manifest) *Summary {
	summary := &Summary{DryRun: true}
	summary.Team = ResourceResult{Name: m.Mattermost.Team, Status: StatusPlanned}
	fmt.Fprintf(e.out, "[dry-run] Team: %s\n", m.Mattermost.Team)

	for _, bot := range m.Bots {
		summary.Bots = append(summary.Bots, BotResult{Username: bot.Username, Status: StatusPlanned})
		fmt.Fprintf(e.out, "[dry-run]   @%s\n", bot.Username)
	}
	for _, ch := range m.Channels {
		summary.Channels = append(summary.Channels, ResourceResult{Name: ch.Name, Status: StatusPlanned})
		fmt.Fprintf(e.out, "[dry-run]   #%s  (%d bots)\n", ch.Name, len(m.ChannelBots(ch)))
	}
	return summary
}

func statusFor(created bool) string {
	if created {
		return StatusCreated
	}
	return StatusExists
}

func verbFor(created bool) string {
	if created {
		return "created"
	}
	return "already exists"
}
