package rules

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs are tree noise never worth scanning. Dot-directories are
// skipped wholesale in the walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	"vendor":       true,
}

// testDirs and testNamePatterns are the fixed test-path exclusions. Test
// code may legitimately contain constructs the checks would flag, so it
// never enters the corpus.
var testDirs = map[string]bool{
	"__tests__": true,
	"test":      true,
	"tests":     true,
	"fixtures":  true,
	"mocks":     true,
}

var testNamePatterns = []string{".test.", ".spec.", ".e2e.", ".stories."}

var sourceExts = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
	".mjs": true,
	".cjs": true,
	".mts": true,
	".cts": true,
}

// IsTestPath reports whether a (slash-separated, root-relative) path
// matches any test exclusion: a test-suffixed filename or a test
// directory segment.
func IsTestPath(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	base := filepath.Base(lower)
	for _, pat := range testNamePatterns {
		if strings.Contains(base, pat) {
			return true
		}
	}
	for _, seg := range strings.Split(filepath.Dir(lower), "/") {
		if testDirs[seg] {
			return true
		}
	}
	return false
}

// SourceFile is one scanned file. Lines is Text split on newlines,
// precomputed because nearly every static check walks it.
type SourceFile struct {
	Path  string
	Text  string
	Lines []string
	Size  int64
}

// SkippedPath records a path the walk could not read.
type SkippedPath struct {
	Path string
	Err  error
}

// Corpus is the scannable project: source files minus test paths, the
// package manifest if present, and the estimated entry-file size.
type Corpus struct {
	Root       string
	Files      []SourceFile
	Manifest   []byte
	EntryPath  string
	EntryBytes int64
	Skipped    []SkippedPath
}

// entryCandidates are tried in order when the config names no main.
var entryCandidates = []string{
	"src/index.ts", "src/index.js", "src/main.ts", "src/main.js",
	"src/worker.ts", "src/worker.js", "index.ts", "index.js",
}

// Collect walks root and builds the corpus. entry is the configured main
// module, empty when unknown. Unreadable paths are recorded and skipped;
// collection itself never fails.
func Collect(root, entry string) *Corpus {
	c := &Corpus{Root: root}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.Skipped = append(c.Skipped, SkippedPath{Path: c.rel(path), Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if skipDirs[name] || testDirs[name] || strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == "package.json" && filepath.Dir(path) == root {
			if data, rerr := os.ReadFile(path); rerr == nil {
				c.Manifest = data
			}
			return nil
		}
		if !sourceExts[filepath.Ext(d.Name())] {
			return nil
		}
		rel := c.rel(path)
		if IsTestPath(rel) {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			c.Skipped = append(c.Skipped, SkippedPath{Path: rel, Err: rerr})
			return nil
		}
		c.Files = append(c.Files, newSourceFile(rel, string(data)))
		return nil
	})
	c.resolveEntry(entry)
	return c
}

// NewCorpus builds a corpus directly from in-memory contents. File order
// is sorted by path so results are stable.
func NewCorpus(root string, files map[string]string) *Corpus {
	c := &Corpus{Root: root}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if p == "package.json" {
			c.Manifest = []byte(files[p])
			continue
		}
		if IsTestPath(p) || !sourceExts[filepath.Ext(p)] {
			continue
		}
		c.Files = append(c.Files, newSourceFile(p, files[p]))
	}
	c.resolveEntry("")
	return c
}

func newSourceFile(rel, text string) SourceFile {
	return SourceFile{
		Path:  rel,
		Text:  text,
		Lines: strings.Split(text, "\n"),
		Size:  int64(len(text)),
	}
}

func (c *Corpus) rel(path string) string {
	rel, err := filepath.Rel(c.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// resolveEntry records the entry module and its byte size. The size is an
// estimate input for bundle checks, 0 when no entry could be identified.
func (c *Corpus) resolveEntry(entry string) {
	candidates := entryCandidates
	if entry != "" {
		candidates = append([]string{filepath.ToSlash(entry)}, entryCandidates...)
	}
	byPath := make(map[string]*SourceFile, len(c.Files))
	for i := range c.Files {
		byPath[c.Files[i].Path] = &c.Files[i]
	}
	for _, cand := range candidates {
		if f, ok := byPath[cand]; ok {
			c.EntryPath = f.Path
			c.EntryBytes = f.Size
			return
		}
		if c.Root != "" {
			if info, err := os.Stat(filepath.Join(c.Root, filepath.FromSlash(cand))); err == nil && !info.IsDir() {
				c.EntryPath = cand
				c.EntryBytes = info.Size()
				return
			}
		}
	}
}
