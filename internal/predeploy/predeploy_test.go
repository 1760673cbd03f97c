package predeploy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/config"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/hookio"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/report"
)

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestIsDeployCommand(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"wrangler deploy", true},
		{"npx wrangler deploy --env production", true},
		{"bunx wrangler deploy", true},
		{"pnpm --filter api wrangler deploy", true},
		{"yarn workspace api wrangler publish", true},
		{"WRANGLER DEPLOY", true},
		{"wrangler dev", false},
		{"wrangler deployments list", false},
		{"npm run deploy", false},
		{"echo wrangler && deploy", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsDeployCommand(tt.cmd); got != tt.want {
			t.Errorf("IsDeployCommand(%q) = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestBypassed(t *testing.T) {
	t.Setenv(BypassEnv, "")
	if Bypassed("wrangler deploy") {
		t.Error("no signal should mean no bypass")
	}
	if !Bypassed("wrangler deploy # cf-skip-predeploy") {
		t.Error("token in command should bypass")
	}

	for _, v := range []string{"1", "true", "YES", " on "} {
		t.Setenv(BypassEnv, v)
		if !Bypassed("wrangler deploy") {
			t.Errorf("env %q should bypass", v)
		}
	}
	for _, v := range []string{"0", "false", "off", "nope"} {
		t.Setenv(BypassEnv, v)
		if Bypassed("wrangler deploy") {
			t.Errorf("env %q should not bypass", v)
		}
	}
}

func TestHook_IgnoresOtherTools(t *testing.T) {
	out, code := Hook(hookio.Input{ToolName: "Write"})
	if out != "" || code != report.ExitAllow {
		t.Errorf("got %q, %d", out, code)
	}
}

func TestHook_IgnoresOtherCommands(t *testing.T) {
	in := hookio.Input{
		ToolName:  "Bash",
		ToolInput: json.RawMessage(`{"command":"git push"}`),
	}
	out, code := Hook(in)
	if out != "" || code != report.ExitAllow {
		t.Errorf("got %q, %d", out, code)
	}
}

func TestHook_BypassShortCircuits(t *testing.T) {
	t.Setenv(BypassEnv, "")
	// Point cwd at a project that would block, to prove the bypass wins.
	root := writeProject(t, map[string]string{
		"wrangler.toml":    "name = \"spin\"\n",
		"src/index.ts":     spinSrc,
		".predeployignore": "!LOOP007\n",
	})
	in := hookio.Input{
		ToolName:  "Bash",
		Cwd:       root,
		ToolInput: json.RawMessage(`{"command":"npx wrangler deploy # cf-skip-predeploy"}`),
	}
	out, code := Hook(in)
	if code != report.ExitAllow {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(out, "skipped") {
		t.Errorf("out = %q", out)
	}
	if strings.Contains(out, "LOOP007") {
		t.Error("bypass must not run validation")
	}
}

const spinSrc = `export default {
  async fetch() {
    while (true) {
      compute();
    }
  }
};
`

func TestRun_PromotedCriticalBlocks(t *testing.T) {
	t.Setenv("CF_PREDEPLOY_FORMAT", "")
	root := writeProject(t, map[string]string{
		"wrangler.toml":    "name = \"spin\"\ncompatibility_date = \"2025-03-01\"\n",
		"src/index.ts":     spinSrc,
		".predeployignore": "!LOOP007\n",
	})
	out, code := Run(root, &config.Config{}, fixedNow)
	if code != report.ExitBlock {
		t.Fatalf("code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "LOOP007") || !strings.Contains(out, "DEPLOYMENT BLOCKED") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRun_UnpromotedCriticalAllows(t *testing.T) {
	t.Setenv("CF_PREDEPLOY_FORMAT", "")
	root := writeProject(t, map[string]string{
		"wrangler.toml": "name = \"spin\"\ncompatibility_date = \"2025-03-01\"\n",
		"src/index.ts":  spinSrc,
	})
	out, code := Run(root, &config.Config{}, fixedNow)
	if code != report.ExitAllow {
		t.Fatalf("code = %d", code)
	}
	// Visible but not blocking.
	if !strings.Contains(out, "LOOP007") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Contains(out, "DEPLOYMENT BLOCKED") {
		t.Error("nothing was promoted, deploy should be allowed")
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Setenv("CF_PREDEPLOY_FORMAT", "")
	root := writeProject(t, map[string]string{
		"wrangler.toml": "name = \"w\"\n[vars]\nAPI_KEY = \"sk-test-1234567890\"\n",
		"src/index.ts":  "for (const x of xs) {\n  await env.KV.put(x.k, x.v);\n}\n",
	})
	out1, code1 := Run(root, &config.Config{}, fixedNow)
	out2, code2 := Run(root, &config.Config{}, fixedNow)
	if out1 != out2 || code1 != code2 {
		t.Errorf("runs differ:\n%s\n----\n%s", out1, out2)
	}
	if !strings.Contains(out1, "SEC001") || !strings.Contains(out1, "LOOP001") {
		t.Errorf("output:\n%s", out1)
	}
}

func TestRun_ParseFailureDegrades(t *testing.T) {
	t.Setenv("CF_PREDEPLOY_FORMAT", "")
	root := writeProject(t, map[string]string{
		"wrangler.jsonc": "{\"name\": }",
		"src/util.ts":    "const copy = JSON.parse(JSON.stringify(state));\n",
	})
	out, code := Run(root, &config.Config{}, fixedNow)
	if code != report.ExitAllow {
		t.Fatalf("an internal failure must never block, code = %d", code)
	}
	if !strings.Contains(out, "INT002") || !strings.Contains(out, "could not be parsed") {
		t.Errorf("output:\n%s", out)
	}
	// Source checks still ran.
	if !strings.Contains(out, "PERF002") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRun_NoConfig(t *testing.T) {
	t.Setenv("CF_PREDEPLOY_FORMAT", "")
	root := writeProject(t, map[string]string{
		"src/db.ts": `const rows = await env.DB.prepare("SELECT * FROM users").all();` + "\n",
	})
	out, code := Run(root, &config.Config{}, fixedNow)
	if code != report.ExitAllow {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(out, "INT005") || !strings.Contains(out, "no wrangler config") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "QUERY002") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRun_InlineSuppression(t *testing.T) {
	t.Setenv("CF_PREDEPLOY_FORMAT", "")
	root := writeProject(t, map[string]string{
		"wrangler.toml": "name = \"w\"\n",
		"src/index.ts": strings.Join([]string{
			"// @pre-deploy-ok",
			`const copy = JSON.parse(JSON.stringify(state));`,
		}, "\n") + "\n",
	})
	out, _ := Run(root, &config.Config{}, fixedNow)
	if strings.Contains(out, "PERF002") {
		t.Errorf("suppressed finding leaked:\n%s", out)
	}
	if !strings.Contains(out, "suppressed") {
		t.Errorf("suppression count missing:\n%s", out)
	}
}

func TestRun_JSONFormat(t *testing.T) {
	t.Setenv("CF_PREDEPLOY_FORMAT", "")
	root := writeProject(t, map[string]string{
		"wrangler.toml": "name = \"w\"\n",
		"src/index.ts":  "export default {};\n",
	})
	settings := &config.Config{Report: config.ReportSettings{Format: "json"}}
	out, _ := Run(root, settings, fixedNow)
	if !strings.HasPrefix(out, "{") {
		t.Fatalf("output:\n%s", out)
	}
	var payload struct {
		Findings []struct {
			RuleID string `json:"rule_id"`
		} `json:"findings"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Findings) == 0 {
		t.Error("expected config findings for a bare worker")
	}
}
