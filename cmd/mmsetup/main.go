// Package main provides the mmsetup CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mmsetup",
	Short: "Bootstrap a Mattermost workspace for a bot fleet",
	Long: `mmsetup provisions a Mattermost workspace: a team, a roster of bot
accounts with access tokens, a set of channels, and full bot-to-channel
membership.

Every resource is looked up by natural key before creation, so the tool is
safe to run repeatedly against a live server: existing resources are reused,
never duplicated or clobbered.

Commands output JSON by default. Use --human for a readable summary table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
