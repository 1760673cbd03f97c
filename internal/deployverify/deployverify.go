// Package deployverify implements the post-deploy-verify hook. It runs
// after a wrangler deploy finishes, reads the captured output, and
// reports whether the deploy landed: the deployed URL, the worker name,
// warnings wrangler printed, and suggested follow-up checks. The command
// already ran, so the hook never blocks and always exits zero.
package deployverify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/config"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/hookio"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/predeploy"
)

// HookName identifies this hook in .cf-hooks.yaml.
const HookName = "post-deploy-verify"

// maxErrorLen caps how much of a stderr line the failure report quotes.
const maxErrorLen = 200

// urlPatterns find the deployed URL in wrangler output. Bare
// workers.dev and pages.dev URLs match directly; the Published and
// Deployed forms capture the URL from the surrounding sentence.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://[\w.-]+\.workers\.dev`),
	regexp.MustCompile(`https://[\w.-]+\.pages\.dev`),
	regexp.MustCompile(`Published.*?\n\s+(https://\S+)`),
	regexp.MustCompile(`Deployed.*?to\s+(https://\S+)`),
}

// namePatterns find the worker name in wrangler output, as in
// "Published my-worker (1.0.0)" or "Deployed my-worker to ...".
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Published\s+(\S+)`),
	regexp.MustCompile(`Deployed\s+(\S+)`),
}

// nameFlag falls back to the --name flag on the deploy command itself.
var nameFlag = regexp.MustCompile(`--name[=\s]+(\S+)`)

// warningPatterns are wrangler output fragments worth surfacing even
// when the deploy succeeded.
var warningPatterns = []struct {
	re      *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`(?i)deprecat`), "Deprecated feature detected"},
	{regexp.MustCompile(`(?i)compatibility.*date.*old`), "Compatibility date may need updating"},
	{regexp.MustCompile(`(?i)no routes`), "No routes configured - worker may not be accessible"},
	{regexp.MustCompile(`(?i)secret.*not.*found`), "Missing secret binding"},
}

// Result is the analysis of one deploy attempt.
type Result struct {
	Success  bool
	URL      string
	Worker   string
	Warnings []string
	Errors   []string
}

// Hook verifies the outcome of a wrangler deploy. Non-deploy commands
// pass through silently.
func Hook(in hookio.Input) (string, int) {
	if in.ToolName != "Bash" {
		return "", 0
	}
	cmd := in.Command()
	if !predeploy.IsDeployCommand(cmd) {
		return "", 0
	}
	if !config.Resolve(in.WorkingDir()).HookEnabled(HookName) {
		return "", 0
	}
	res := Analyze(in.Response(), cmd)
	return res.Message(), 0
}

// Analyze inspects a finished deploy's exit code and captured output.
func Analyze(out hookio.ToolOutput, command string) Result {
	var r Result
	if out.ExitCode != 0 {
		r.Errors = append(r.Errors, fmt.Sprintf("Deploy failed with exit code %d", out.ExitCode))
		if line := firstErrorLine(out.Stderr); line != "" {
			r.Errors = append(r.Errors, truncate(line, maxErrorLen))
		}
		return r
	}
	r.Success = true
	r.URL = DeployURL(out.Stdout)
	r.Worker = WorkerName(out.Stdout, command)
	combined := out.Stdout + out.Stderr
	for _, w := range warningPatterns {
		if w.re.MatchString(combined) {
			r.Warnings = append(r.Warnings, w.message)
		}
	}
	return r
}

// DeployURL extracts the deployed URL from wrangler output, or returns
// empty when none is printed.
func DeployURL(stdout string) string {
	for _, re := range urlPatterns {
		m := re.FindStringSubmatch(stdout)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			return m[1]
		}
		return m[0]
	}
	return ""
}

// WorkerName extracts the worker name from wrangler output, falling
// back to a --name flag on the command.
func WorkerName(stdout, command string) string {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(stdout); m != nil {
			return m[1]
		}
	}
	if m := nameFlag.FindStringSubmatch(command); m != nil {
		return m[1]
	}
	return ""
}

// firstErrorLine returns the first line of stderr that is not blank.
func firstErrorLine(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Message renders the verification report for the session transcript.
func (r Result) Message() string {
	var lines []string
	if r.Success {
		head := "✅ **Deployment successful**"
		if r.Worker != "" {
			head += fmt.Sprintf(" (%s)", r.Worker)
		}
		lines = append(lines, head)
		if r.URL != "" {
			lines = append(lines, "   URL: "+r.URL)
		}
		lines = append(lines,
			"",
			"📊 **Suggested next steps:**",
			"   • Check Worker logs via Cloudflare dashboard or observability MCP",
			"   • Run `/cf-audit --validate` to verify against production metrics",
		)
		if len(r.Warnings) > 0 {
			lines = append(lines, "", "⚠️ **Warnings:**")
			for _, w := range r.Warnings {
				lines = append(lines, "   • "+w)
			}
		}
	} else {
		lines = append(lines, "❌ **Deployment failed**")
		for _, e := range r.Errors {
			lines = append(lines, "   • "+e)
		}
		lines = append(lines,
			"",
			"💡 **Troubleshooting:**",
			"   • Check wrangler.toml syntax",
			"   • Verify all secrets are configured: `wrangler secret list`",
			"   • Run `/cf-audit` to check for configuration issues",
		)
	}
	return strings.Join(lines, "\n")
}
