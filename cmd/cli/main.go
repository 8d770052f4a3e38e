package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kishanss4/corrupt-watch/cmd/cli/roles"
	"github.com/kishanss4/corrupt-watch/cmd/cli/track"
	"github.com/spf13/cobra"
)

func init() {
	// Missing .env is fine, the real environment covers it.
	_ = godotenv.Load()
	rootCmd.AddGroup(roles.Group)
	rootCmd.AddCommand(roles.Grant)
	rootCmd.AddGroup(track.Group)
	rootCmd.AddCommand(track.Track)
}

var rootCmd = &cobra.Command{
	Use:  "corruptwatch-cli",
	Long: `Command line utilities for Corrupt Watch administration`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
