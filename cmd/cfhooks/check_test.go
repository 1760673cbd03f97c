package main

import (
	"path/filepath"
	"testing"
)

func TestRunCheckRejectsUnknownFormat(t *testing.T) {
	checkOutput = "yaml"
	t.Cleanup(func() { checkOutput = "" })

	if err := runCheck(checkCmd, nil); err == nil {
		t.Fatal("no error for unknown output format")
	}
}

// An empty directory has no config and no blocking findings, so the
// advisory path returns instead of exiting.
func TestRunCheckEmptyProject(t *testing.T) {
	checkOutput = ""
	dir := t.TempDir()
	t.Setenv("CF_HOOKS_CONFIG", filepath.Join(dir, ".cf-hooks.yaml"))
	t.Setenv("CF_PREDEPLOY_FORMAT", "")

	if err := runCheck(checkCmd, []string{dir}); err != nil {
		t.Fatal(err)
	}
}

func TestRunRulesRejectsUnknownFormat(t *testing.T) {
	rulesOutput = "yaml"
	t.Cleanup(func() { rulesOutput = "table" })

	if err := runRules(rulesCmd, nil); err == nil {
		t.Fatal("no error for unknown output format")
	}
}
