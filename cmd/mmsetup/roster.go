package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teamforge/mmsetup/internal/provision"
)

var rosterManifest string

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Show the effective bot and channel roster",
	Long: `Show the roster that provision would apply: bots, channels, and
which bots join which channels. Reads the manifest without calling the API.

Examples:
  mmsetup roster
  mmsetup roster --manifest workspace.yml --human`,
	Args: cobra.NoArgs,
	RunE: runRoster,
}

func init() {
	rosterCmd.Flags().StringVar(&rosterManifest, "manifest", "", "Workspace manifest path (default: built-in roster)")
	rootCmd.AddCommand(rosterCmd)
}

func runRoster(cmd *cobra.Command, args []string) error {
	var (
		manifest *provision.Manifest
		err      error
	)
	if rosterManifest != "" {
		manifest, err = provision.LoadManifest(rosterManifest)
		if err != nil {
			exitWithError(ExitPrecondition, "%v", err)
		}
	} else {
		manifest = provision.DefaultManifest()
	}

	if !humanOutput {
		return outputJSON(manifest)
	}

	fmt.Printf("# Roster: team %q\n\n", manifest.Mattermost.Team)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BOT\tDISPLAY NAME\tDESCRIPTION")
	fmt.Fprintln(w, "---\t------------\t-----------")
	for _, bot := range manifest.Bots {
		fmt.Fprintf(w, "@%s\t%s\t%s\n", bot.Username, bot.DisplayName, bot.Description)
	}
	w.Flush()
	fmt.Println()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tTYPE\tWEBHOOK\tBOTS")
	fmt.Fprintln(w, "-------\t----\t-------\t----")
	for _, ch := range manifest.Channels {
		chType := "public"
		if ch.Private {
			chType = "private"
		}
		webhook := ""
		if ch.Webhook {
			webhook = "yes"
		}
		fmt.Fprintf(w, "#%s\t%s\t%s\t%s\n", ch.Name, chType, webhook, strings.Join(manifest.ChannelBots(ch), ", "))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d bots, %d channels\n", len(manifest.Bots), len(manifest.Channels))
	return nil
}
