// Package main provides the mmbridge CLI entry point.
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
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mmbridge",
	Short: "Generate the bridge configuration for a Mattermost workspace",
	Long: `mmbridge resolves a Mattermost team id by name and writes the
configuration file consumed by the bridge process.

The resolved id and credential are emitted through the JSON encoder only;
nothing is interpolated into an executable payload.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
