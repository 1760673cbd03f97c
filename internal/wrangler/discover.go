package wrangler

import (
	"os"
	"path/filepath"
)

// ConfigNames are the conventional wrangler config filenames, in lookup
// order. Wrangler itself prefers the JSONC form when both exist.
var ConfigNames = []string{"wrangler.jsonc", "wrangler.toml", "wrangler.json"}

// maxParentHops bounds the upward search from the working directory.
const maxParentHops = 3

// Discover finds the nearest wrangler config for dir, checking dir itself
// and up to three parent directories. Returns the path and whether one
// was found.
func Discover(dir string) (string, bool) {
	for hop := 0; hop <= maxParentHops; hop++ {
		for _, name := range ConfigNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}
