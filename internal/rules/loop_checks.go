package rules

import (
	"regexp"
	"strings"
)

// Loop-body detection is a lexical nesting check: from a loop keyword,
// find the body's opening brace, then track brace depth to the matching
// close. It does not tokenize strings or comments, so a brace inside a
// string can skew a span. That trade is intentional: the scan must stay
// fast enough to run on every deploy.

type loopSpan struct {
	header    string
	body      string
	startLine int
	unbounded bool
}

var loopKeyword = regexp.MustCompile(`\b(?:for|while)\s*\(|\.(?:forEach|map)\s*\(`)

var unboundedHeader = regexp.MustCompile(`while\s*\(\s*true\s*\)|for\s*\(\s*;\s*;\s*\)`)

// headerLookahead bounds the search for a loop body's opening brace.
const headerLookahead = 400

func findLoopSpans(text string) []loopSpan {
	var spans []loopSpan
	for _, loc := range loopKeyword.FindAllStringIndex(text, -1) {
		match := text[loc[0]:loc[1]]
		// A method-style loop's body brace sits inside the call parens.
		wantDepth := 0
		if strings.HasPrefix(match, ".") {
			wantDepth = 1
		}

		open := bodyOpenBrace(text, loc[0], wantDepth)
		if open < 0 {
			continue
		}

		end := matchingBrace(text, open)
		spans = append(spans, loopSpan{
			header:    text[loc[0]:open],
			body:      text[open : end+1],
			startLine: lineAt(text, loc[0]),
			unbounded: unboundedHeader.MatchString(text[loc[0]:open]),
		})
	}
	return spans
}

// bodyOpenBrace finds the brace opening a loop body: the first '{' at
// the wanted paren depth after the loop keyword. Returns -1 when the
// construct is braceless or the header runs past the lookahead window.
func bodyOpenBrace(text string, from, wantDepth int) int {
	depth := 0
	limit := from + headerLookahead
	if limit > len(text) {
		limit = len(text)
	}
	for j := from; j < limit; j++ {
		switch text[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 || depth < wantDepth {
				return -1
			}
		case '{':
			if depth == wantDepth {
				return j
			}
		case ';':
			if depth == 0 && wantDepth == 0 {
				return -1
			}
		}
	}
	return -1
}

// matchingBrace returns the index of the brace closing the one at open,
// or the last index when the text ends first.
func matchingBrace(text string, open int) int {
	depth := 0
	for j := open; j < len(text); j++ {
		switch text[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(text) - 1
}

var queryCall = regexp.MustCompile(`\.(?:prepare|exec|batch)\s*\(|\.query\s*\(`)

// checkQueryInLoop flags database calls lexically inside a loop body,
// the classic N+1 shape.
func checkQueryInLoop(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for _, span := range findLoopSpans(f.Text) {
			if !queryCall.MatchString(span.body) {
				continue
			}
			out = append(out, Finding{
				Message: "Database query inside a loop body (N+1: one round trip per iteration)",
				Fix:     "Batch with IN (...) or db.batch() outside the loop",
				File:    f.Path,
				Line:    span.startLine,
				Context: f.Path,
				CostOp:  "d1_query",
			})
		}
	}
	return out, nil
}

var writeCall = regexp.MustCompile(`\.(?:put|send|sendBatch|write|delete)\s*\(`)

// checkWriteInLoop flags storage writes inside a loop body; every
// iteration is a billed operation.
func checkWriteInLoop(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for _, span := range findLoopSpans(f.Text) {
			if !writeCall.MatchString(span.body) {
				continue
			}
			out = append(out, Finding{
				Message: "Storage write inside a loop body (one billed operation per iteration)",
				Fix:     "Collect items and write once (bulk put, sendBatch)",
				File:    f.Path,
				Line:    span.startLine,
				Context: f.Path,
				CostOp:  "kv_write",
			})
		}
	}
	return out, nil
}

var loopExit = regexp.MustCompile(`\b(?:break|return|throw)\b`)

// checkUnboundedLoop flags while(true) / for(;;) loops whose span has no
// break, return, or throw. On a worker that is a request that never
// finishes and bills CPU until the runtime kills it.
func checkUnboundedLoop(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for _, span := range findLoopSpans(f.Text) {
			if !span.unbounded || loopExit.MatchString(span.body) {
				continue
			}
			out = append(out, Finding{
				Message: "Unbounded loop with no break, return, or throw",
				Fix:     "Add an exit condition or an iteration cap",
				File:    f.Path,
				Line:    span.startLine,
				Context: f.Path,
			})
		}
	}
	return out, nil
}

var aiCall = regexp.MustCompile(`(?i)\benv\.\w*AI\w*\.run\s*\(|\.run\s*\(\s*["']@cf/`)

// checkAIInLoop flags model inference calls inside a loop body; each
// iteration bills neurons.
func checkAIInLoop(in *Input) ([]Finding, error) {
	var out []Finding
	for _, f := range in.Corpus.Files {
		for _, span := range findLoopSpans(f.Text) {
			if !aiCall.MatchString(span.body) {
				continue
			}
			out = append(out, Finding{
				Message: "AI inference call inside a loop body (one billed inference per iteration)",
				Fix:     "Batch inputs into a single run() call where the model allows",
				File:    f.Path,
				Line:    span.startLine,
				Context: f.Path,
				CostOp:  "ai_run",
			})
		}
	}
	return out, nil
}
