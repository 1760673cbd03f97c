// Package predeploy validates a Cloudflare Workers project before a
// wrangler deploy runs. As a PreToolUse hook it sees every Bash command;
// deploy commands get the full pipeline (config parse, rule catalog,
// suppression, cost annotation, report) and everything else passes
// through untouched.
package predeploy

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/config"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/cost"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/hookio"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/logging"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/report"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/rules"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/suppress"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/wrangler"
)

// HookName identifies this hook in CF_HOOK_DISABLED and .cf-hooks.yaml.
const HookName = "pre-deploy-check"

const (
	// BypassEnv set to a truthy value skips validation for the session.
	BypassEnv = "CF_PREDEPLOY_BYPASS"
	// BypassToken anywhere in the command string skips one invocation.
	BypassToken = "cf-skip-predeploy"
)

// deployCommand matches every launcher spelling (bare wrangler, npx, bunx,
// pnpm --filter, yarn workspace) because they all contain the wrangler
// subcommand itself. publish is the pre-v3 name for deploy.
var deployCommand = regexp.MustCompile(`(?i)\bwrangler\s+(?:deploy|publish)\b`)

// IsDeployCommand reports whether cmd would deploy a worker.
func IsDeployCommand(cmd string) bool {
	return deployCommand.MatchString(cmd)
}

// Bypassed reports whether validation is switched off for this
// invocation. Both signals are checked before any file is touched.
func Bypassed(cmd string) bool {
	if truthy(os.Getenv(BypassEnv)) {
		return true
	}
	return strings.Contains(cmd, BypassToken)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Hook is the hookio entry point.
func Hook(in hookio.Input) (string, int) {
	if in.ToolName != "Bash" {
		return "", report.ExitAllow
	}
	cmd := in.Command()
	if !IsDeployCommand(cmd) {
		return "", report.ExitAllow
	}
	if Bypassed(cmd) {
		return "⏭️  Pre-deploy validation skipped (bypass active)", report.ExitAllow
	}
	dir := in.WorkingDir()
	settings := config.Resolve(dir)
	if !settings.HookEnabled(HookName) {
		return "", report.ExitAllow
	}
	return Run(dir, settings, time.Now())
}

// Run executes the pipeline for the project at dir and returns the
// rendered report and exit code. Internal faults degrade to findings;
// the only blocking path is a promoted critical.
func Run(dir string, settings *config.Config, now time.Time) (string, int) {
	logging.Init(settings.DebugLog())
	defer logging.Sync()
	log := logging.Logger

	var findings []rules.Finding
	var cfg *wrangler.Config
	root := dir

	if path, ok := wrangler.Discover(dir); ok {
		log.Debugw("wrangler config found", "path", path)
		root = filepath.Dir(path)
		parsed, err := wrangler.ParseFile(path)
		if err != nil {
			var perr *wrangler.ParseError
			if errors.As(err, &perr) {
				findings = append(findings, rules.ConfigParseFailure(perr))
			}
			log.Debugw("config parse failed", "error", err)
		} else {
			cfg = parsed
		}
	} else {
		log.Debugw("no wrangler config", "dir", dir)
		findings = append(findings, rules.NoConfigFound(dir))
	}

	entry := ""
	if cfg != nil {
		entry = cfg.Main
	}
	corpus := rules.Collect(root, entry)
	for _, sk := range corpus.Skipped {
		findings = append(findings, rules.InaccessiblePath(sk.Path, sk.Err))
	}
	log.Debugw("corpus collected", "root", root, "files", len(corpus.Files), "skipped", len(corpus.Skipped))

	catalog := rules.Catalog()
	findings = append(findings, rules.Run(catalog, &rules.Input{Config: cfg, Corpus: corpus, Now: now})...)

	sup := suppress.New(corpus, filepath.Join(root, suppress.IgnoreFileName))
	findings = append(findings, sup.Problems()...)
	findings = sup.Apply(findings)

	findings = cost.Annotate(findings, catalog, cost.DefaultPricing(), settings.RequestsPerDay())

	summary := report.Build(findings)
	log.Debugw("validation finished",
		"visible", len(summary.Visible),
		"suppressed", summary.Suppressed,
		"exit", summary.ExitCode())
	return summary.Render(settings.Format()), summary.ExitCode()
}
