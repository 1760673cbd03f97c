package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Checks in this file are text-pattern scans over the source corpus
// (STATIC detection kind). They are deliberately lexical: fast and
// line-addressable, with the false-positive rate that implies.

// lineAt converts a byte offset into a 1-based line number.
func lineAt(text string, idx int) int {
	if idx > len(text) {
		idx = len(text)
	}
	return 1 + strings.Count(text[:idx], "\n")
}

var secretLiteralPatterns = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "AWS access key"},
	{regexp.MustCompile(`ghp_[A-Za-z0-9]{20,}`), "GitHub personal access token"},
	{regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`), "GitHub fine-grained token"},
	{regexp.MustCompile(`xox[bpors]-[A-Za-z0-9\-]{10,}`), "Slack token"},
	{regexp.MustCompile(`sk_(?:live|test)_[A-Za-z0-9]{20,}`), "Stripe secret key"},
	{regexp.MustCompile(`SG\.[A-Za-z0-9_\-]{10,}\.[A-Za-z0-9_\-]{10,}`), "SendGrid API key"},
	{regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`), "private key"},
	{regexp.MustCompile(`(?i)(?:api_key|apikey|api_secret)\s*[=:]\s*["'][A-Za-z0-9\-_]{20,}["']`), "API key assignment"},
	{regexp.MustCompile(`(?i)(?:password|passwd)\s*[=:]\s*["'][^"'$]{8,}["']`), "hardcoded password"},
}

func isExamplePath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "example") ||
		strings.Contains(lower, "template") ||
		strings.Contains(lower, "sample")
}

// checkHardcodedSecrets scans source lines for known credential shapes.
// Example and template files are skipped; real tokens do not belong in
// those either, but the noise outweighs the catch.
func checkHardcodedSecrets(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		if isExamplePath(f.Path) {
			continue
		}
		for i, line := range f.Lines {
			for _, sp := range secretLiteralPatterns {
				if !sp.re.MatchString(line) {
					continue
				}
				out = append(out, Finding{
					Message: fmt.Sprintf("Possible %s in source", sp.name),
					Fix:     "Move it to wrangler secret put and read it from env",
					File:    f.Path,
					Line:    i + 1,
					Context: f.Path,
				})
				break
			}
		}
	}
	return out, nil
}

var corsWildcard = regexp.MustCompile(`(?i)["']Access-Control-Allow-Origin["']\s*[,:]\s*["']\*["']`)

// checkCORSWildcard flags Access-Control-Allow-Origin: *.
func checkCORSWildcard(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for i, line := range f.Lines {
			if !corsWildcard.MatchString(line) {
				continue
			}
			out = append(out, Finding{
				Message: "CORS allows any origin (Access-Control-Allow-Origin: *)",
				Fix:     "Echo an allowlisted Origin header instead",
				File:    f.Path,
				Line:    i + 1,
				Context: f.Path,
			})
		}
	}
	return out, nil
}

var emptyCatch = regexp.MustCompile(`(?s)catch\s*(?:\([^)]*\))?\s*\{\s*\}`)

// checkEmptyCatch flags catch blocks with no body; in a worker they
// silently eat errors that should at least reach the logs.
func checkEmptyCatch(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for _, loc := range emptyCatch.FindAllStringIndex(f.Text, -1) {
			out = append(out, Finding{
				Message: "Empty catch block swallows errors",
				Fix:     "Log the error or rethrow after cleanup",
				File:    f.Path,
				Line:    lineAt(f.Text, loc[0]),
				Context: f.Path,
			})
		}
	}
	return out, nil
}

// checkJSONClone flags JSON.parse(JSON.stringify(...)) deep clones.
func checkJSONClone(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for i, line := range f.Lines {
			if !strings.Contains(line, "JSON.parse(JSON.stringify(") {
				continue
			}
			out = append(out, Finding{
				Message: "JSON.parse(JSON.stringify(...)) clone on the request path",
				Fix:     "Use structuredClone()",
				File:    f.Path,
				Line:    i + 1,
				Context: f.Path,
			})
		}
	}
	return out, nil
}

var selectStar = regexp.MustCompile(`(?i)SELECT\s+\*\s+FROM`)

// checkSelectStar flags SELECT * queries; D1 bills rows read, and star
// selects read every column of them.
func checkSelectStar(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for i, line := range f.Lines {
			if !selectStar.MatchString(line) {
				continue
			}
			out = append(out, Finding{
				Message: "SELECT * reads every column (D1 bills rows read)",
				Fix:     "List only the columns the handler uses",
				File:    f.Path,
				Line:    i + 1,
				Context: f.Path,
			})
		}
	}
	return out, nil
}
