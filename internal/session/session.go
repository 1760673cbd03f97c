// Package session implements the session-start hook. On the first
// session in a Cloudflare Worker project it prints a short capabilities
// banner: which resource bindings the config declares and whether the
// tree holds several workers. The banner is cached per project state so
// later sessions stay quiet until the config changes.
package session

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/config"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/hookio"
	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/wrangler"
)

// HookName identifies this hook in .cf-hooks.yaml.
const HookName = "session-start"

// CacheFileName holds the fingerprint of the last announced project
// state, under the project's .claude directory.
const CacheFileName = ".cf-session-cache"

const cacheDirName = ".claude"

// Hook announces the plugin once per project state. Everything here is
// advisory: any failure to read or write falls back to staying quiet or
// announcing again, and the exit code is always zero.
func Hook(in hookio.Input) (string, int) {
	path, ok := wrangler.Discover(in.WorkingDir())
	if !ok {
		return "", 0
	}
	root := filepath.Dir(path)
	if !config.Resolve(root).HookEnabled(HookName) {
		return "", 0
	}
	fp := Fingerprint(root)
	if Cached(root, fp) {
		return "", 0
	}
	det := Detect(root, path)
	Remember(root, fp)
	return det.Banner(), 0
}

// Fingerprint condenses the mtimes of the project's config files into a
// short hash. Two sessions over an untouched project see the same value.
// Empty means none of the files exist. MD5 only has to detect change
// here, nothing depends on it being hard to forge.
func Fingerprint(root string) string {
	names := append([]string{}, wrangler.ConfigNames...)
	names = append(names, "package.json")
	var parts []string
	for _, name := range names {
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil || info.IsDir() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%d", name, info.ModTime().UnixNano()))
	}
	if len(parts) == 0 {
		return ""
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:12]
}

func cachePath(root string) string {
	return filepath.Join(root, cacheDirName, CacheFileName)
}

// Cached reports whether fingerprint was already announced for root.
func Cached(root, fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	data, err := os.ReadFile(cachePath(root))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == fingerprint
}

// Remember stores the announced fingerprint. Failures are dropped; the
// worst case is announcing again next session.
func Remember(root, fingerprint string) {
	if fingerprint == "" {
		return
	}
	p := cachePath(root)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(p, []byte(fingerprint+"\n"), 0o644)
}

// Detection is what the banner reports about a project.
type Detection struct {
	Bindings []string
	Workers  int
}

// Detect parses the discovered config for its resource bindings and
// counts worker configs under root. A config that fails to parse still
// counts as a Cloudflare project, just with nothing detected.
func Detect(root, configPath string) Detection {
	det := Detection{Workers: countWorkers(root)}
	if cfg, err := wrangler.ParseFile(configPath); err == nil {
		det.Bindings = cfg.BindingKinds()
	}
	return det
}

// countWorkers counts directories under root holding a wrangler config.
// More than one means a monorepo. Dependency trees and dot directories
// are skipped.
func countWorkers(root string) int {
	seen := make(map[string]bool)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "node_modules" || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		for _, name := range wrangler.ConfigNames {
			if d.Name() == name {
				seen[filepath.Dir(path)] = true
				break
			}
		}
		return nil
	})
	return len(seen)
}

// Banner renders the announcement. Lines for bindings and monorepo
// layout appear only when there is something to say.
func (d Detection) Banner() string {
	var b strings.Builder
	b.WriteString("🔶 **Cloudflare Engineer plugin active**")
	if len(d.Bindings) > 0 {
		b.WriteString("\n   Detected: ")
		b.WriteString(strings.Join(d.Bindings, ", "))
	}
	if d.Workers > 1 {
		fmt.Fprintf(&b, "\n   Monorepo: %d workers", d.Workers)
	}
	b.WriteString("\n   Run `/cf-audit` for architecture review and cost analysis")
	return b.String()
}
