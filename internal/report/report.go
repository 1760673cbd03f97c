// Package report renders the final finding list and decides the exit
// code. Output is deterministic: no timestamps, stable ordering, so two
// runs over an unchanged project print byte-identical reports.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/rules"
)

// Exit codes of the validation run. Everything except an opted-in
// blocking critical allows the deploy.
const (
	ExitAllow = 0
	ExitBlock = 2
)

var severityOrder = []rules.Severity{
	rules.SevCritical, rules.SevHigh, rules.SevMedium, rules.SevLow, rules.SevInfo,
}

var severityMark = map[rules.Severity]string{
	rules.SevCritical: "🔴",
	rules.SevHigh:     "🟠",
	rules.SevMedium:   "🟡",
	rules.SevLow:      "🔵",
	rules.SevInfo:     "⚪",
}

// Summary is the post-suppression view of a run: what to print and
// whether to block.
type Summary struct {
	Visible    []rules.Finding
	Suppressed int
	Blocking   []rules.Finding
}

// Build partitions findings into visible and suppressed, sorts the
// visible ones for display, and collects the blocking subset.
func Build(findings []rules.Finding) Summary {
	s := Summary{Visible: []rules.Finding{}}
	for _, f := range findings {
		if f.Suppressed {
			s.Suppressed++
			continue
		}
		s.Visible = append(s.Visible, f)
		if f.Blocking && f.Severity == rules.SevCritical {
			s.Blocking = append(s.Blocking, f)
		}
	}
	sortFindings(s.Visible)
	sortFindings(s.Blocking)
	return s
}

// ExitCode is 2 only when a non-suppressed critical finding was promoted
// to blocking, 0 in every other case.
func (s Summary) ExitCode() int {
	if len(s.Blocking) > 0 {
		return ExitBlock
	}
	return ExitAllow
}

// Render returns the report in the requested format. Anything other than
// "json" renders as text.
func (s Summary) Render(format string) string {
	if format == "json" {
		if out, err := s.JSON(); err == nil {
			return out
		}
	}
	return s.Text()
}

// Text renders the grouped human-readable report. With nothing to show
// it returns "", keeping the silent-allow behavior of a clean run.
func (s Summary) Text() string {
	if len(s.Visible) == 0 {
		if s.Suppressed > 0 {
			return fmt.Sprintf("✅ Pre-deploy check passed (%d finding(s) suppressed)", s.Suppressed)
		}
		return ""
	}

	var b strings.Builder
	b.WriteString("\n⚠️  PRE-DEPLOY VALIDATION ISSUES FOUND\n")
	b.WriteString(strings.Repeat("=", 45))
	b.WriteString("\n")

	for _, sev := range severityOrder {
		group := s.bySeverity(sev)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s\n", severityMark[sev], sev)
		for _, f := range group {
			fmt.Fprintf(&b, "   [%s] %s\n", f.RuleID, f.Message)
			fmt.Fprintf(&b, "   Where: %s  (%s)\n", f.Location(), f.Kind)
			if f.Fix != "" {
				fmt.Fprintf(&b, "   Fix: %s\n", f.Fix)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("Detection kinds: CONFIG read from wrangler config, STATIC matched in source text, HEURISTIC inferred from naming (verify manually).\n")
	s.writeTrailer(&b)
	return b.String()
}

func (s Summary) bySeverity(sev rules.Severity) []rules.Finding {
	var out []rules.Finding
	for _, f := range s.Visible {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

func (s Summary) writeTrailer(b *strings.Builder) {
	suppressedNote := ""
	if s.Suppressed > 0 {
		suppressedNote = fmt.Sprintf(" (%d suppressed)", s.Suppressed)
	}
	switch {
	case len(s.Blocking) > 0:
		fmt.Fprintf(b, "\n🛑 DEPLOYMENT BLOCKED: %d blocking critical issue(s) found%s.\n", len(s.Blocking), suppressedNote)
		b.WriteString("Fix them or remove the !RULE_ID entry from " + ignoreFileHint + ".\n")
	case len(s.bySeverity(rules.SevCritical))+len(s.bySeverity(rules.SevHigh)) > 0:
		fmt.Fprintf(b, "\n⚠️  WARNING: %d issue(s) found%s, none blocking. Deployment allowed.\n", len(s.Visible), suppressedNote)
		b.WriteString("Consider fixing before deploying to production. Blocking is opt-in: add !RULE_ID to " + ignoreFileHint + ".\n")
	default:
		fmt.Fprintf(b, "\nℹ️  %d minor issue(s) found%s. Deployment allowed.\n", len(s.Visible), suppressedNote)
	}
}

// ignoreFileHint is spelled here rather than imported to keep report free
// of a dependency on the suppress package.
const ignoreFileHint = ".predeployignore"

// JSON renders the machine-readable report.
func (s Summary) JSON() (string, error) {
	payload := struct {
		Findings   []rules.Finding `json:"findings"`
		Total      int             `json:"total"`
		Suppressed int             `json:"suppressed"`
		Blocked    bool            `json:"blocked"`
	}{
		Findings:   s.Visible,
		Total:      len(s.Visible),
		Suppressed: s.Suppressed,
		Blocked:    s.ExitCode() == ExitBlock,
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// sortFindings orders by severity descending, then report category
// order, then rule id and location for a stable tiebreak.
func sortFindings(fs []rules.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if ar, br := rules.CategoryRank(a.Category), rules.CategoryRank(b.Category); ar != br {
			return ar < br
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.ConfigKey < b.ConfigKey
	})
}
