package rules

import (
	"regexp"
)

// Self-recursion detection: a fetch whose argument echoes the inbound
// request's URL re-enters this same worker. Cloudflare caps subrequest
// recursion, but every level before the cap bills as a normal request.

var fetchSelfPatterns = []*regexp.Regexp{
	// fetch(request.url ...), fetch(`${request.url}...`)
	regexp.MustCompile(`fetch\s*\(\s*[^)\n]*\b(?:request|req)\s*\.\s*url\b`),
	// fetch(request) / fetch(req, init)
	regexp.MustCompile(`fetch\s*\(\s*(?:request|req)\s*[,)]`),
	// fetch(new Request(request ...))
	regexp.MustCompile(`fetch\s*\(\s*new\s+Request\s*\(\s*(?:request|req)\b`),
}

var depthGuard = regexp.MustCompile(`(?i)\w*depth\w*\s*(?:>=|<=|>|<|===|==)\s*[\w."']+|[\w."']+\s*(?:>=|<=|>|<|===|==)\s*\w*depth\w*`)

var guardAction = regexp.MustCompile(`\b(?:return|throw)\b`)

// guardWindow is how many lines around the fetch a depth guard counts.
const guardWindow = 5

// checkSelfRecursion finds self-targeted fetches. A depth-guard
// comparison inside the window downgrades CRITICAL to HIGH; a guard that
// visibly returns or throws suppresses the finding.
func checkSelfRecursion(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for i, line := range f.Lines {
			if !matchesSelfFetch(line) {
				continue
			}
			guardLine := findDepthGuard(f.Lines, i)
			if guardLine >= 0 && guardActs(f.Lines, guardLine) {
				continue
			}
			finding := Finding{
				Severity: SevCritical,
				Message:  "fetch() targets the inbound request URL (self-recursion: the worker calls itself)",
				Fix:      "Check a recursion-depth header and return before re-fetching",
				File:     f.Path,
				Line:     i + 1,
				Context:  f.Path,
			}
			if guardLine >= 0 {
				finding.Severity = SevHigh
				finding.Message = "fetch() targets the inbound request URL; a depth guard is nearby but does not clearly stop the call"
				finding.Fix = "Make the depth guard return or throw before the fetch"
			}
			out = append(out, finding)
		}
	}
	return out, nil
}

func matchesSelfFetch(line string) bool {
	for _, re := range fetchSelfPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// findDepthGuard returns the index of a depth-comparison line within the
// window around center, -1 when none exists.
func findDepthGuard(lines []string, center int) int {
	lo := center - guardWindow
	if lo < 0 {
		lo = 0
	}
	hi := center + guardWindow
	if hi > len(lines)-1 {
		hi = len(lines) - 1
	}
	for i := lo; i <= hi; i++ {
		if depthGuard.MatchString(lines[i]) {
			return i
		}
	}
	return -1
}

// guardActs reports whether the guard line or the one after it bails out.
func guardActs(lines []string, guardLine int) bool {
	if guardAction.MatchString(lines[guardLine]) {
		return true
	}
	if guardLine+1 < len(lines) && guardAction.MatchString(lines[guardLine+1]) {
		return true
	}
	return false
}
