package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	installDryRun   bool
	installForce    bool
	installBinDir   string
	installSettings string
)

// hookEntry is one command entry in a Claude settings hook group.
type hookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// hookGroup pairs an optional tool matcher with its hook commands.
type hookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []hookEntry `json:"hooks"`
}

// hookEvents maps each settings event to the binary that serves it. The
// two tool-facing hooks only care about Bash commands.
var hookEvents = []struct {
	event   string
	matcher string
	binary  string
}{
	{"SessionStart", "", "session-start"},
	{"PreToolUse", "Bash", "pre-deploy-check"},
	{"PostToolUse", "Bash", "post-deploy-verify"},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the hook commands into Claude settings",
	Long: `Install the three hook commands into Claude Code's settings.json.

Existing settings survive the merge: only this plugin's own hook entries
are added or replaced, and the previous file is backed up first. By
default commands are written as bare binary names and must be on PATH;
use --bin-dir to install absolute paths instead.`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Print the merged settings without writing")
	installCmd.Flags().BoolVar(&installForce, "force", false, "Replace entries left by a previous install")
	installCmd.Flags().StringVar(&installBinDir, "bin-dir", "", "Directory holding the hook binaries (default: rely on PATH)")
	installCmd.Flags().StringVar(&installSettings, "settings", "", "Settings file to update (default: ~/.claude/settings.json)")
}

func settingsPath() (string, error) {
	if installSettings != "" {
		return installSettings, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// loadSettings reads settings.json as a loose map so keys this tool does
// not know about pass through the merge untouched.
func loadSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return raw, nil
}

func hookCommand(binary string) string {
	if installBinDir == "" {
		return binary
	}
	return filepath.Join(installBinDir, binary)
}

// managedCommand reports whether a settings command belongs to this
// plugin, whatever directory it was installed from.
func managedCommand(cmd string) bool {
	for _, h := range hookEvents {
		if strings.Contains(cmd, h.binary) {
			return true
		}
	}
	return false
}

func groupManaged(group map[string]any) bool {
	hooks, ok := group["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		m, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := m["command"].(string); ok && managedCommand(cmd) {
			return true
		}
	}
	return false
}

// filterUnmanaged drops this plugin's groups from an event, keeping
// everything installed by other tools.
func filterUnmanaged(groups []any) []any {
	kept := make([]any, 0, len(groups))
	for _, g := range groups {
		if m, ok := g.(map[string]any); ok && groupManaged(m) {
			continue
		}
		kept = append(kept, g)
	}
	return kept
}

func alreadyInstalled(raw map[string]any) bool {
	hooksMap, ok := raw["hooks"].(map[string]any)
	if !ok {
		return false
	}
	for _, h := range hookEvents {
		groups, ok := hooksMap[h.event].([]any)
		if !ok {
			continue
		}
		for _, g := range groups {
			if m, ok := g.(map[string]any); ok && groupManaged(m) {
				return true
			}
		}
	}
	return false
}

func groupToMap(g hookGroup) map[string]any {
	hooks := make([]any, len(g.Hooks))
	for i, h := range g.Hooks {
		entry := map[string]any{"type": h.Type, "command": h.Command}
		if h.Timeout > 0 {
			entry["timeout"] = h.Timeout
		}
		hooks[i] = entry
	}
	m := map[string]any{"hooks": hooks}
	if g.Matcher != "" {
		m["matcher"] = g.Matcher
	}
	return m
}

// mergeHooks writes this plugin's three hook groups into raw, replacing
// any earlier install and leaving foreign groups alone.
func mergeHooks(raw map[string]any) {
	hooksMap := map[string]any{}
	if existing, ok := raw["hooks"].(map[string]any); ok {
		for k, v := range existing {
			hooksMap[k] = v
		}
	}
	for _, h := range hookEvents {
		var groups []any
		if g, ok := hooksMap[h.event].([]any); ok {
			groups = filterUnmanaged(g)
		}
		groups = append(groups, groupToMap(hookGroup{
			Matcher: h.matcher,
			Hooks:   []hookEntry{{Type: "command", Command: hookCommand(h.binary)}},
		}))
		hooksMap[h.event] = groups
	}
	raw["hooks"] = hooksMap
}

func backupSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	backup := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	fmt.Println("Backed up existing settings to", backup)
	return nil
}

func writeSettings(path string, raw map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func runInstall(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	raw, err := loadSettings(path)
	if err != nil {
		return err
	}
	if alreadyInstalled(raw) && !installForce {
		fmt.Println("Hooks already installed. Use --force to reinstall.")
		return nil
	}
	mergeHooks(raw)

	if installDryRun {
		fmt.Println("[dry-run] Would write to", path)
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if err := backupSettings(path); err != nil {
		return err
	}
	if err := writeSettings(path, raw); err != nil {
		return err
	}

	fmt.Println("✓ Installed hooks to", path)
	for _, h := range hookEvents {
		line := fmt.Sprintf("  %s: %s", h.event, hookCommand(h.binary))
		if h.matcher != "" {
			line += fmt.Sprintf(" (matcher: %s)", h.matcher)
		}
		fmt.Println(line)
	}
	if installBinDir == "" {
		fmt.Println()
		fmt.Println("The hook binaries must be on PATH. Use --bin-dir to install absolute paths.")
	}
	return nil
}
