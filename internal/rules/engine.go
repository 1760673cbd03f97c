package rules

import (
	"errors"
	"fmt"
)

// RuleResult is the outcome of running one rule: findings, or a failure
// reason. Exactly one side is meaningful.
type RuleResult struct {
	RuleID   string
	Findings []Finding
	Err      error
}

// Run executes every catalog entry against the input and returns the
// concatenated findings, in catalog order. A rule that fails (error or
// panic) contributes a single INFO finding naming it and never disturbs
// the other rules.
func Run(catalog []RuleDefinition, in *Input) []Finding {
	var findings []Finding
	for _, def := range catalog {
		res := runOne(def, in)
		if res.Err != nil {
			findings = append(findings, CheckFailed(def.ID, res.Err))
			continue
		}
		for _, f := range res.Findings {
			findings = append(findings, stamp(def, f))
		}
	}
	return findings
}

func runOne(def RuleDefinition, in *Input) (res RuleResult) {
	res.RuleID = def.ID
	defer func() {
		if r := recover(); r != nil {
			res.Findings = nil
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()
	if def.Check == nil {
		res.Err = errors.New("rule has no check function")
		return res
	}
	res.Findings, res.Err = def.Check(in)
	return res
}

// stamp fills identity fields a check left at their zero value, so every
// finding carries its rule's id, category, severity, and kind.
func stamp(def RuleDefinition, f Finding) Finding {
	if f.RuleID == "" {
		f.RuleID = def.ID
	}
	if f.Category == "" {
		f.Category = def.Category
	}
	if f.Severity == "" {
		f.Severity = def.Severity
	}
	if f.Kind == "" {
		f.Kind = def.Kind
	}
	return f
}
