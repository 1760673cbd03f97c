package rules

import (
	"testing"
	"time"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/wrangler"
)

// fixedNow keeps time-sensitive checks deterministic in tests.
var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func tomlConfig(t *testing.T, body string) *wrangler.Config {
	t.Helper()
	cfg, err := wrangler.Parse("wrangler.toml", []byte(body), wrangler.DialectTOML)
	if err != nil {
		t.Fatalf("test config: %v", err)
	}
	return cfg
}

func inputFor(cfg *wrangler.Config, files map[string]string) *Input {
	return &Input{
		Config: cfg,
		Corpus: NewCorpus("proj", files),
		Now:    fixedNow,
	}
}

// evalRule runs a single catalog rule and returns its stamped findings.
func evalRule(t *testing.T, id string, in *Input) []Finding {
	t.Helper()
	def, ok := Lookup(id)
	if !ok {
		t.Fatalf("unknown rule %s", id)
	}
	findings, err := def.Check(in)
	if err != nil {
		t.Fatalf("%s: %v", id, err)
	}
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		out = append(out, stamp(def, f))
	}
	return out
}

func ruleIDs(findings []Finding) []string {
	ids := make([]string, len(findings))
	for i, f := range findings {
		ids[i] = f.RuleID
	}
	return ids
}
