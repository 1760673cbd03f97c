package rules

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func emptyInput() *Input {
	return &Input{
		Corpus: NewCorpus("proj", nil),
		Now:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRun_IsolatesPanickingRule(t *testing.T) {
	catalog := []RuleDefinition{
		{
			ID: "X001", Category: "SEC", Severity: SevLow, Kind: KindConfig,
			Check: func(in *Input) ([]Finding, error) {
				panic("boom")
			},
		},
		{
			ID: "X002", Category: "SEC", Severity: SevLow, Kind: KindConfig,
			Check: func(in *Input) ([]Finding, error) {
				return []Finding{{Message: "fine"}}, nil
			},
		},
	}

	findings := Run(catalog, emptyInput())
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2: %+v", len(findings), findings)
	}
	failed := findings[0]
	if failed.RuleID != RuleCheckFailed {
		t.Errorf("RuleID = %q, want %q", failed.RuleID, RuleCheckFailed)
	}
	if failed.Severity != SevInfo {
		t.Errorf("Severity = %q, want INFO", failed.Severity)
	}
	if failed.Context != "X001" {
		t.Errorf("Context = %q, want the failing rule id", failed.Context)
	}
	if findings[1].Message != "fine" {
		t.Errorf("later rule did not run: %+v", findings[1])
	}
}

func TestRun_ReportsCheckErrors(t *testing.T) {
	catalog := []RuleDefinition{{
		ID: "X001", Category: "SEC", Severity: SevLow, Kind: KindConfig,
		Check: func(in *Input) ([]Finding, error) {
			return nil, errors.New("bad input shape")
		},
	}}
	findings := Run(catalog, emptyInput())
	if len(findings) != 1 || findings[0].RuleID != RuleCheckFailed {
		t.Fatalf("findings = %+v", findings)
	}
}

func TestRun_StampsIdentity(t *testing.T) {
	catalog := []RuleDefinition{{
		ID: "X003", Category: "LOOP", Severity: SevMedium, Kind: KindStatic,
		Check: func(in *Input) ([]Finding, error) {
			return []Finding{{Message: "bare"}}, nil
		},
	}}
	findings := Run(catalog, emptyInput())
	f := findings[0]
	if f.RuleID != "X003" || f.Category != "LOOP" || f.Severity != SevMedium || f.Kind != KindStatic {
		t.Errorf("stamp incomplete: %+v", f)
	}
}

func TestRun_KeepsExplicitSeverity(t *testing.T) {
	catalog := []RuleDefinition{{
		ID: "X004", Category: "ARCH", Severity: SevCritical, Kind: KindStatic,
		Check: func(in *Input) ([]Finding, error) {
			return []Finding{{Message: "downgraded", Severity: SevHigh}}, nil
		},
	}}
	findings := Run(catalog, emptyInput())
	if findings[0].Severity != SevHigh {
		t.Errorf("Severity = %q, want explicit HIGH preserved", findings[0].Severity)
	}
}

func TestCatalog_UniqueIDsAndChecks(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range Catalog() {
		if seen[def.ID] {
			t.Errorf("duplicate rule id %s", def.ID)
		}
		seen[def.ID] = true
		if def.Check == nil {
			t.Errorf("rule %s has no check function", def.ID)
		}
		if def.Category == "" || def.Severity == "" || def.Kind == "" {
			t.Errorf("rule %s has incomplete identity", def.ID)
		}
	}
	if len(seen) < 30 {
		t.Errorf("catalog has %d rules", len(seen))
	}
}

func TestCatalog_HeuristicsSayVerifyManually(t *testing.T) {
	in := &Input{
		Config: tomlConfig(t, `
name = "w"
[[r2_buckets]]
binding = "COLD"
bucket_name = "logs-archive"

[[durable_objects.bindings]]
name = "SESSION"
class_name = "UserSession"

[[migrations]]
tag = "v1"
new_classes = ["UserSession"]
`),
		Corpus: NewCorpus("proj", nil),
		Now:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, def := range Catalog() {
		if def.Kind != KindHeuristic {
			continue
		}
		findings, err := def.Check(in)
		if err != nil {
			t.Fatalf("%s: %v", def.ID, err)
		}
		for _, f := range findings {
			if !strings.Contains(f.Message, "manually") {
				t.Errorf("%s message lacks manual-verification wording: %q", def.ID, f.Message)
			}
		}
	}
}
