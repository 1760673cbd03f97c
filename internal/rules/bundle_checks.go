package rules

import (
	"encoding/json"
	"fmt"
)

// Bundle checks approximate what a bundler would report. No bundler
// runs here: the size signal is the raw entry-file size plus known-heavy
// names in the manifest, and the messages say so.

const (
	bundleHardLimit = 1 << 20 // 1 MiB, the compressed size cap on the starter tier
	bundleSoftLimit = 512 << 10
)

// checkBundleSize estimates worker size from the entry file.
func checkBundleSize(in *Input) ([]Finding, error) {
	c := in.Corpus
	if c.EntryPath == "" || c.EntryBytes == 0 {
		return nil, nil
	}
	switch {
	case c.EntryBytes >= bundleHardLimit:
		return []Finding{{
			Severity: SevHigh,
			Message: fmt.Sprintf("Entry module is %d KiB before bundling; the 1 MiB compressed limit is in reach (size is an estimate, no bundler was run)",
				c.EntryBytes>>10),
			Fix:     "Split the worker or move static assets to R2",
			File:    c.EntryPath,
			Context: c.EntryPath,
		}}, nil
	case c.EntryBytes >= bundleSoftLimit:
		return []Finding{{
			Severity: SevMedium,
			Message: fmt.Sprintf("Entry module is %d KiB before bundling; keep an eye on bundle growth (size is an estimate, no bundler was run)",
				c.EntryBytes>>10),
			Fix:     "Check bundle output size with wrangler deploy --dry-run --outdir",
			File:    c.EntryPath,
			Context: c.EntryPath,
		}}, nil
	}
	return nil, nil
}

// heavyDeps maps dependencies known to bloat worker bundles to their
// workers-friendly replacements. Checked in slice order so findings come
// out stable.
var heavyDeps = []struct {
	name string
	alt  string
}{
	{"moment", "date-fns or the Temporal API"},
	{"lodash", "per-method lodash imports or native array methods"},
	{"axios", "the built-in fetch"},
	{"aws-sdk", "aws4fetch"},
	{"@aws-sdk/client-s3", "aws4fetch against the R2 S3 API"},
	{"googleapis", "direct REST calls with fetch"},
	{"jquery", "native DOM APIs (or nothing server-side)"},
	{"request", "the built-in fetch"},
}

// checkHeavyDependencies scans package.json dependencies for names that
// usually dominate bundle size.
func checkHeavyDependencies(in *Input) ([]Finding, error) {
	if len(in.Corpus.Manifest) == 0 {
		return nil, nil
	}
	var manifest struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(in.Corpus.Manifest, &manifest); err != nil {
		return nil, fmt.Errorf("package.json: %w", err)
	}
	var out []Finding
	for _, dep := range heavyDeps {
		if _, ok := manifest.Dependencies[dep.name]; !ok {
			continue
		}
		out = append(out, Finding{
			Message: fmt.Sprintf("Dependency '%s' tends to dominate worker bundles", dep.name),
			Fix:     fmt.Sprintf("Consider %s", dep.alt),
			File:    "package.json",
			Context: dep.name,
		})
	}
	return out, nil
}
