package wrangler

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("name = \"x\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_InWorkingDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "wrangler.toml"))
	path, ok := Discover(dir)
	if !ok || path != filepath.Join(dir, "wrangler.toml") {
		t.Errorf("Discover = %q, %v", path, ok)
	}
}

func TestDiscover_PrefersJSONC(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "wrangler.toml"))
	touch(t, filepath.Join(dir, "wrangler.jsonc"))
	path, _ := Discover(dir)
	if filepath.Base(path) != "wrangler.jsonc" {
		t.Errorf("Discover picked %q, want wrangler.jsonc", path)
	}
}

func TestDiscover_WalksParents(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "wrangler.toml"))
	nested := filepath.Join(root, "src", "handlers")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	path, ok := Discover(nested)
	if !ok || path != filepath.Join(root, "wrangler.toml") {
		t.Errorf("Discover = %q, %v", path, ok)
	}
}

func TestDiscover_DepthLimit(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "wrangler.toml"))
	deep := filepath.Join(root, "a", "b", "c", "d")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}
	if _, ok := Discover(deep); ok {
		t.Error("config four levels up should be out of range")
	}
}

func TestDiscover_NotFound(t *testing.T) {
	if path, ok := Discover(t.TempDir()); ok {
		t.Errorf("unexpected config %q", path)
	}
}
