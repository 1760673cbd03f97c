package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command when cfhooks is called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "cfhooks",
	Short: "Manage the Cloudflare Engineer deploy hooks",
	Long: `cfhooks manages the Cloudflare Engineer hook set for Claude Code:
pre-deploy validation, session announcements, and post-deploy
verification.

Commands:
  install   Merge the hook commands into Claude settings.json
  rules     List the pre-deploy validation rule catalog
  check     Run the pre-deploy validator against a project directory

The hooks themselves are separate binaries (pre-deploy-check,
session-start, post-deploy-verify) that read one JSON event on stdin.
cfhooks only wires them up and runs the validator by hand.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
