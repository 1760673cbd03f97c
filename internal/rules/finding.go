// Package rules holds the validation catalog: finding and severity types,
// the source corpus, and every check the pre-deploy validator runs.
package rules

import (
	"fmt"
	"time"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/wrangler"
)

// Severity of a finding, ordered INFO < LOW < MEDIUM < HIGH < CRITICAL.
type Severity string

const (
	SevInfo     Severity = "INFO"
	SevLow      Severity = "LOW"
	SevMedium   Severity = "MEDIUM"
	SevHigh     Severity = "HIGH"
	SevCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SevInfo:     0,
	SevLow:      1,
	SevMedium:   2,
	SevHigh:     3,
	SevCritical: 4,
}

// Rank returns the ordering weight of s, higher meaning more severe.
func (s Severity) Rank() int { return severityRank[s] }

// DetectionKind is the confidence tier of a finding: read directly from
// config, matched in source text, or inferred from naming.
type DetectionKind string

const (
	KindConfig    DetectionKind = "CONFIG"
	KindStatic    DetectionKind = "STATIC"
	KindHeuristic DetectionKind = "HEURISTIC"
)

// Categories in report display order.
var CategoryOrder = []string{
	"SEC", "RES", "COST", "PERF", "ARCH", "BUDGET",
	"LOOP", "QUERY", "R2", "OBS", "AI", "ZT", "PRIV", "INT",
}

var categoryRank = func() map[string]int {
	m := make(map[string]int, len(CategoryOrder))
	for i, c := range CategoryOrder {
		m[c] = i
	}
	return m
}()

// CategoryRank returns the display order of a category. Unknown
// categories sort last.
func CategoryRank(cat string) int {
	if r, ok := categoryRank[cat]; ok {
		return r
	}
	return len(CategoryOrder)
}

// Finding is one detected issue. A rule may emit several (one per
// occurrence). Suppressed and Blocking are the only fields touched after
// creation, by suppression resolution.
type Finding struct {
	RuleID    string        `json:"rule_id"`
	Category  string        `json:"category"`
	Severity  Severity      `json:"severity"`
	Kind      DetectionKind `json:"detection_kind"`
	Message   string        `json:"message"`
	Fix       string        `json:"fix,omitempty"`
	File      string        `json:"file,omitempty"`
	Line      int           `json:"line,omitempty"`
	ConfigKey string        `json:"config_key,omitempty"`
	Context   string        `json:"context,omitempty"`
	CostOp    string        `json:"-"`

	Suppressed bool `json:"-"`
	Blocking   bool `json:"blocking"`
}

// Location renders the finding's position: file:line for source findings,
// the config key path for config findings.
func (f Finding) Location() string {
	if f.File != "" {
		if f.Line > 0 {
			return fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		return f.File
	}
	if f.ConfigKey != "" {
		return f.ConfigKey
	}
	return "-"
}

// Input is what every check function sees. Config is nil when no
// configuration file was found or it failed to parse; checks that need it
// return nothing in that case.
type Input struct {
	Config *wrangler.Config
	Corpus *Corpus
	Now    time.Time
}

// CheckFunc inspects the input and returns findings, or an error when the
// check itself could not run.
type CheckFunc func(*Input) ([]Finding, error)

// RuleDefinition is one catalog entry. The catalog is built once at
// startup and never mutated.
type RuleDefinition struct {
	ID              string
	Category        string
	Severity        Severity
	Kind            DetectionKind
	Summary         string
	VolumeSensitive bool
	Check           CheckFunc
}

// Reserved rule ids for the tool's own failures. They surface as ordinary
// findings so internal errors are visible without ever crashing a deploy.
const (
	RuleCheckFailed  = "INT001"
	RuleConfigParse  = "INT002"
	RuleIgnoreFormat = "INT003"
	RuleFSAccess     = "INT004"
	RuleNoConfig     = "INT005"
)

// CheckFailed wraps an individual rule failure as an INFO finding.
func CheckFailed(ruleID string, err error) Finding {
	return Finding{
		RuleID:   RuleCheckFailed,
		Category: "INT",
		Severity: SevInfo,
		Kind:     KindConfig,
		Message:  fmt.Sprintf("check %s failed to run: %v", ruleID, err),
		Fix:      "Report this; other checks ran normally",
		Context:  ruleID,
	}
}

// ConfigParseFailure reports an unparseable configuration file.
func ConfigParseFailure(err *wrangler.ParseError) Finding {
	return Finding{
		RuleID:   RuleConfigParse,
		Category: "INT",
		Severity: SevCritical,
		Kind:     KindConfig,
		Message:  fmt.Sprintf("configuration could not be parsed: %v", err.Err),
		Fix:      "Fix the syntax error; config checks were skipped this run",
		File:     err.Path,
		Line:     err.Line,
		Context:  err.Path,
	}
}

// IgnoreFileProblem reports one malformed ignore-file line.
func IgnoreFileProblem(path string, line int, reason string) Finding {
	return Finding{
		RuleID:   RuleIgnoreFormat,
		Category: "INT",
		Severity: SevLow,
		Kind:     KindConfig,
		Message:  fmt.Sprintf("ignore file line %d skipped: %s", line, reason),
		Fix:      "Use RULE_ID, RULE_ID:context, or !RULE_ID per line",
		File:     path,
		Line:     line,
	}
}

// InaccessiblePath reports a source path skipped during discovery.
func InaccessiblePath(path string, err error) Finding {
	return Finding{
		RuleID:   RuleFSAccess,
		Category: "INT",
		Severity: SevLow,
		Kind:     KindStatic,
		Message:  fmt.Sprintf("could not read %s: %v", path, err),
		Fix:      "Check permissions; the rest of the tree was scanned",
		File:     path,
		Context:  path,
	}
}

// NoConfigFound reports that no wrangler config was discovered.
func NoConfigFound(dir string) Finding {
	return Finding{
		RuleID:   RuleNoConfig,
		Category: "INT",
		Severity: SevInfo,
		Kind:     KindConfig,
		Message:  fmt.Sprintf("no wrangler config found near %s; config checks skipped", dir),
		Fix:      "Run from the worker directory or add wrangler.jsonc",
	}
}
