package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teamforge/mmsetup/internal/bridge"
	"github.com/teamforge/mmsetup/internal/config"
)

var (
	resolveURL            string
	resolveToken          string
	resolveTeam           string
	resolveOut            string
	resolveTimeout        time.Duration
	resolveConnectTimeout time.Duration
	resolveChannels       []string
	resolveDisable        bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the team id and write the bridge config",
	Long: `Resolve the workspace's team id by name and write the bridge
configuration file atomically.

The HTTP status of the lookup is classified explicitly: 401/403 means the
token is bad, 404 means no such team, anything else non-200 is a server
problem. A 200 response is still rejected if it carries an error envelope
or an implausibly short id.

Examples:
  mmbridge resolve --url https://chat.example.com --team agents --out bridge.json
  mmbridge resolve --team agents --timeout 10s`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	// Load .env file if present (for MM_ADMIN_TOKEN)
	_ = godotenv.Load()

	resolveCmd.Flags().StringVar(&resolveURL, "url", "", "Mattermost server URL (env: MM_URL)")
	resolveCmd.Flags().StringVar(&resolveToken, "token", "", "Admin token (env: MM_ADMIN_TOKEN)")
	resolveCmd.Flags().StringVar(&resolveTeam, "team", "", "Team slug to resolve (env: MM_TEAM)")
	resolveCmd.Flags().StringVar(&resolveOut, "out", "bridge-config.json", "Output path for the bridge config")
	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", bridge.DefaultTimeout, "Overall request timeout")
	resolveCmd.Flags().DurationVar(&resolveConnectTimeout, "connect-timeout", bridge.DefaultConnectTimeout, "Connection timeout")
	resolveCmd.Flags().StringSliceVar(&resolveChannels, "monitor-channels", nil, "Channels to monitor (default: built-in monitoring defaults)")
	resolveCmd.Flags().BoolVar(&resolveDisable, "monitor-disabled", false, "Write the config with monitoring disabled")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	url := firstNonEmpty(resolveURL, os.Getenv("MM_URL"), config.GetServerURL())
	token := firstNonEmpty(resolveToken, os.Getenv("MM_ADMIN_TOKEN"), config.GetAdminToken())
	team := firstNonEmpty(resolveTeam, os.Getenv("MM_TEAM"), config.GetTeam())
	out := resolveOut
	if out == "bridge-config.json" && config.GetBridgeConfigPath() != "" {
		out = config.GetBridgeConfigPath()
	}

	if url == "" {
		exitWithError(ExitPrecondition, "server URL required: --url flag or MM_URL env var")
	}
	if token == "" {
		exitWithError(ExitPrecondition, "admin token required: --token flag or MM_ADMIN_TOKEN env var")
	}
	if team == "" {
		exitWithError(ExitPrecondition, "team name required: --team flag or MM_TEAM env var")
	}

	resolver := bridge.NewResolver(url, token,
		bridge.WithTimeouts(resolveTimeout, resolveConnectTimeout))

	teamID, err := resolver.ResolveTeamID(cmd.Context(), team)
	if err != nil {
		exitWithError(classifyResolveError(err), "resolving team %q: %v", team, err)
	}

	monitoring := bridge.DefaultMonitoring()
	if len(resolveChannels) > 0 {
		monitoring.Channels = resolveChannels
	}
	if resolveDisable {
		monitoring.Enabled = false
	}

	cfg := &bridge.Config{
		MattermostURL: strings.TrimRight(url, "/"),
		Token:         token,
		TeamID:        teamID,
		Monitoring:    monitoring,
	}
	if err := bridge.WriteConfig(out, cfg); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Team %q resolved (id: %s)\n", team, teamID)
		fmt.Printf("Bridge config written to %s\n", out)
		return nil
	}
	return outputJSON(map[string]string{
		"team_id": teamID,
		"path":    out,
	})
}

// classifyResolveError maps resolver errors onto the exit code contract.
func classifyResolveError(err error) int {
	switch {
	case errors.Is(err, bridge.ErrCredential):
		return ExitCredential
	case errors.Is(err, bridge.ErrTeamNotFound):
		return ExitTeamNotFound
	case errors.Is(err, bridge.ErrServer), errors.Is(err, bridge.ErrTimeout):
		return ExitServer
	}
	return ExitError
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ErrorResponse is the JSON error shape for failed commands.
type ErrorResponse struct {
	Error string `json:"error"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}
