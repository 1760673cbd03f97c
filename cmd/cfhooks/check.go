package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/config"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/predeploy"
)

var checkOutput string

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Run the pre-deploy validator against a project",
	Long: `Run the same validation the pre-deploy hook runs, without the hook
protocol around it. Useful in CI or before committing.

The exit code follows the hook: 2 when a blocking critical finding is
present, 0 otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkOutput, "output", "", "Report format: text, json (default from .cf-hooks.yaml)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if checkOutput != "" {
		if checkOutput != "text" && checkOutput != "json" {
			return fmt.Errorf("unknown output format %q (use text or json)", checkOutput)
		}
		// The format resolver already prefers this variable, so the flag
		// just feeds it.
		os.Setenv("CF_PREDEPLOY_FORMAT", checkOutput)
	}

	settings := config.Resolve(dir)
	text, code := predeploy.Run(dir, settings, time.Now())
	if text != "" {
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		fmt.Print(text)
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
