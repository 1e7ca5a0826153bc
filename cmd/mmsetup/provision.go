package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teamforge/mmsetup/internal/config"
	"github.com/teamforge/mmsetup/internal/journal"
	"github.com/teamforge/mmsetup/internal/mattermost"
	"github.com/teamforge/mmsetup/internal/provision"
)

var (
	provisionURL      string
	provisionLoginID  string
	provisionPassword string
	provisionToken    string
	provisionTeam     string
	provisionManifest string
	provisionDryRun   bool
	provisionJournal  string
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision the team, bots, tokens, and channels",
	Long: `Provision the workspace described by the manifest (or the built-in
default roster): team, bot accounts, access tokens, team membership,
channels, and bot-to-channel membership.

Credentials resolve in order: flag, environment, global config. A pre-issued
admin token (--token or MM_ADMIN_TOKEN) skips the login step entirely;
otherwise --login-id plus --password (or MM_ADMIN_PASSWORD) are exchanged
for a session token.

Examples:
  mmsetup provision --url https://chat.example.com --token $MM_ADMIN_TOKEN
  mmsetup provision --manifest workspace.yml --login-id admin
  mmsetup provision --dry-run --human`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func init() {
	// Load .env file if present (for MM_ADMIN_TOKEN / MM_ADMIN_PASSWORD)
	_ = godotenv.Load()

	provisionCmd.Flags().StringVar(&provisionURL, "url", "", "Mattermost server URL (env: MM_URL)")
	provisionCmd.Flags().StringVar(&provisionLoginID, "login-id", "", "Admin login id (env: MM_LOGIN_ID)")
	provisionCmd.Flags().StringVar(&provisionPassword, "password", "", "Admin password (env: MM_ADMIN_PASSWORD)")
	provisionCmd.Flags().StringVar(&provisionToken, "token", "", "Pre-issued admin token (env: MM_ADMIN_TOKEN)")
	provisionCmd.Flags().StringVar(&provisionTeam, "team", "", "Team slug override (env: MM_TEAM)")
	provisionCmd.Flags().StringVar(&provisionManifest, "manifest", "", "Workspace manifest path (default: built-in roster)")
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "Print the plan without calling the API")
	provisionCmd.Flags().StringVar(&provisionJournal, "journal", "", "Record actions to a SQLite journal at this path")

	rootCmd.AddCommand(provisionCmd)
}

// resolveSetting returns the first nonempty value: flag, environment
// variable, global config.
func resolveSetting(flagValue, envVar, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return configValue
}

func runProvision(cmd *cobra.Command, args []string) error {
	manifest, err := loadManifest()
	if err != nil {
		exitWithError(ExitPrecondition, "%v", err)
	}

	url := resolveSetting(provisionURL, "MM_URL", config.GetServerURL())
	if url == "" {
		url = manifest.Mattermost.URL
	}
	token := resolveSetting(provisionToken, "MM_ADMIN_TOKEN", config.GetAdminToken())
	loginID := resolveSetting(provisionLoginID, "MM_LOGIN_ID", config.GetLoginID())
	password := resolveSetting(provisionPassword, "MM_ADMIN_PASSWORD", "")
	if team := resolveSetting(provisionTeam, "MM_TEAM", config.GetTeam()); team != "" {
		manifest.Mattermost.Team = team
	}
	if manifest.Mattermost.Team == "" {
		exitWithError(ExitPrecondition, "team name required: --team flag, MM_TEAM env var, or manifest mattermost.team")
	}

	if provisionDryRun {
		engine := provision.NewEngine(nil, provision.WithDryRun(true))
		summary, _ := engine.Run(cmd.Context(), manifest)
		return outputSummary(summary)
	}

	if url == "" {
		exitWithError(ExitPrecondition, "server URL required: --url flag, MM_URL env var, or manifest mattermost.url")
	}
	if token == "" && (loginID == "" || password == "") {
		exitWithError(ExitPrecondition, "credentials required: --token (or MM_ADMIN_TOKEN), or --login-id with MM_ADMIN_PASSWORD")
	}

	client := mattermost.NewClient(url, mattermost.WithToken(token))
	if token == "" {
		if _, err := client.Login(cmd.Context(), loginID, password); err != nil {
			exitWithError(ExitAuthFailed, "authenticating as %s: %v", loginID, err)
		}
	}

	var opts []provision.Option
	if provisionJournal != "" {
		j, err := journal.Open(provisionJournal, url)
		if err != nil {
			exitWithError(ExitError, "opening journal: %v", err)
		}
		defer j.Close()
		opts = append(opts, provision.WithRecorder(j))
	}

	engine := provision.NewEngine(client, opts...)
	summary, runErr := engine.Run(cmd.Context(), manifest)

	if err := outputSummary(summary); err != nil {
		return err
	}
	if code := provisionExitCode(summary, runErr); code != ExitSuccess {
		if runErr != nil {
			os.Exit(outputError(code, "provisioning aborted: %v", runErr))
		}
		os.Exit(outputError(code, "one or more resources failed to provision"))
	}
	return nil
}

// provisionExitCode maps a run result onto the exit code contract: any
// aborted run or failed resource is a partial failure, a clean run is 0.
func provisionExitCode(summary *provision.Summary, runErr error) int {
	if runErr != nil || summary.Failed() {
		return ExitPartial
	}
	return ExitSuccess
}

// loadManifest loads the manifest from the flag, the global config default,
// or falls back to the built-in roster.
func loadManifest() (*provision.Manifest, error) {
	path := provisionManifest
	if path == "" {
		path = config.GetManifestPath()
	}
	if path == "" {
		return provision.DefaultManifest(), nil
	}
	return provision.LoadManifest(path)
}

func outputSummary(summary *provision.Summary) error {
	if humanOutput {
		return outputSummaryHuman(summary)
	}
	return outputJSON(summary)
}

func outputSummaryHuman(summary *provision.Summary) error {
	fmt.Println("# Provisioning Summary")
	if summary.DryRun {
		fmt.Println("(dry-run: no API calls were made)")
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tNAME\tSTATUS\tTOKEN\tID")
	fmt.Fprintln(w, "----\t----\t------\t-----\t--")
	fmt.Fprintf(w, "team\t%s\t%s\t\t%s\n", summary.Team.Name, summary.Team.Status, summary.Team.ID)
	for _, b := range summary.Bots {
		fmt.Fprintf(w, "bot\t@%s\t%s\t%s\t%s\n", b.Username, b.Status, b.Token, b.UserID)
	}
	for _, ch := range summary.Channels {
		fmt.Fprintf(w, "channel\t#%s\t%s\t\t%s\n", ch.Name, ch.Status, ch.ID)
	}
	for _, hook := range summary.Webhooks {
		fmt.Fprintf(w, "webhook\t#%s\t%s\t\t%s\n", hook.Name, hook.Status, hook.ID)
	}
	if summary.Sidebar != nil {
		fmt.Fprintf(w, "sidebar\t%s\t%s\t\t%s\n", summary.Sidebar.Name, summary.Sidebar.Status, summary.Sidebar.ID)
	}
	w.Flush()

	ms := summary.Memberships
	fmt.Printf("\nMemberships: %d team joins (%d existing), %d channel joins (%d existing), %d failed\n",
		ms.TeamJoined, ms.TeamExisting, ms.ChannelJoined, ms.ChannelExisting, ms.Failed)

	// Minted secrets are shown once; they cannot be retrieved again.
	for _, b := range summary.Bots {
		if b.TokenSecret != "" {
			fmt.Printf("token @%s [SECRET]: %s\n", b.Username, b.TokenSecret)
		}
	}
	return nil
}
