// Package suppress resolves user-authored suppression directives: inline
// source comments and the project ignore file. Directives only ever hide
// or promote findings; they never change what the checks detect.
package suppress

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/rules"
)

// IgnoreFileName is the conventional ignore file in the project root.
const IgnoreFileName = ".predeployignore"

// Keyword is the inline directive, valid after a // or # line comment.
// Bare, it suppresses every rule on its line and the line below; followed
// by rule ids it suppresses only those.
const Keyword = "@pre-deploy-ok"

var ruleIDShape = regexp.MustCompile(`^[A-Z]+[0-9]+$`)

// Set is the resolved suppression state for one run: inline directives
// gathered from the corpus plus ignore-file entries. Build one with New,
// then Apply it to the finding list.
type Set struct {
	inline   map[string]map[int][]string
	global   map[string]bool
	scoped   map[string]map[string]bool
	promoted map[string]bool
	problems []rules.Finding
}

// New scans the corpus for inline directives and, when ignorePath names
// an existing file, parses it. A missing ignore file is the normal case
// and not an error; unreadable or malformed content degrades to problem
// findings.
func New(corpus *rules.Corpus, ignorePath string) *Set {
	s := &Set{
		inline:   make(map[string]map[int][]string),
		global:   make(map[string]bool),
		scoped:   make(map[string]map[string]bool),
		promoted: make(map[string]bool),
	}
	if corpus != nil {
		for _, f := range corpus.Files {
			s.scanFile(f)
		}
	}
	if ignorePath != "" {
		if data, err := os.ReadFile(ignorePath); err == nil {
			s.parseIgnore(ignorePath, string(data))
		}
	}
	return s
}

// Problems returns one finding per malformed ignore-file line.
func (s *Set) Problems() []rules.Finding { return s.problems }

// Apply marks each finding suppressed or blocking and returns the slice.
// Suppression wins over promotion: a suppressed finding never blocks.
func (s *Set) Apply(findings []rules.Finding) []rules.Finding {
	for i := range findings {
		f := &findings[i]
		f.Suppressed = s.suppressedInline(f) || s.suppressedByFile(f)
		if f.Suppressed {
			f.Blocking = false
			continue
		}
		f.Blocking = s.promoted[f.RuleID]
	}
	return findings
}

func (s *Set) scanFile(f rules.SourceFile) {
	for i, line := range f.Lines {
		c := commentStart(line)
		if c < 0 {
			continue
		}
		k := strings.Index(line[c:], Keyword)
		if k < 0 {
			continue
		}
		m := s.inline[f.Path]
		if m == nil {
			m = make(map[int][]string)
			s.inline[f.Path] = m
		}
		m[i+1] = parseIDList(line[c+k+len(Keyword):])
	}
}

// commentStart returns the index of the first line-comment token, -1 when
// there is none. Both // and # count so the directive reads naturally in
// JS/TS and in hash-commented files alike.
func commentStart(line string) int {
	slash := strings.Index(line, "//")
	hash := strings.Index(line, "#")
	switch {
	case slash < 0:
		return hash
	case hash < 0 || slash < hash:
		return slash
	}
	return hash
}

// parseIDList reads rule ids following the keyword. The list ends at the
// first token that is not shaped like a rule id, so trailing prose is
// allowed. No ids means the directive covers every rule.
func parseIDList(rest string) []string {
	var ids []string
	for _, tok := range strings.Fields(rest) {
		if !ruleIDShape.MatchString(tok) {
			break
		}
		ids = append(ids, tok)
	}
	return ids
}

func (s *Set) parseIgnore(path, data string) {
	for i, raw := range strings.Split(data, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		no := i + 1

		if rest, ok := strings.CutPrefix(line, "!"); ok {
			if !ruleIDShape.MatchString(rest) {
				s.problem(path, no, fmt.Sprintf("%q after '!' is not a rule id", rest))
				continue
			}
			s.promoted[rest] = true
			continue
		}

		id, ctx, hasCtx := strings.Cut(line, ":")
		id = strings.TrimSpace(id)
		if !ruleIDShape.MatchString(id) {
			s.problem(path, no, fmt.Sprintf("%q is not a rule id", id))
			continue
		}
		if !hasCtx {
			s.global[id] = true
			continue
		}
		ctx = strings.TrimSpace(ctx)
		if ctx == "" {
			s.problem(path, no, "empty context after ':'")
			continue
		}
		m := s.scoped[id]
		if m == nil {
			m = make(map[string]bool)
			s.scoped[id] = m
		}
		m[ctx] = true
	}
}

func (s *Set) problem(path string, line int, reason string) {
	s.problems = append(s.problems, rules.IgnoreFileProblem(path, line, reason))
}

// suppressedInline checks the finding's own line and the line above it
// for a covering directive, supporting comment-above-statement style.
func (s *Set) suppressedInline(f *rules.Finding) bool {
	if f.File == "" || f.Line <= 0 {
		return false
	}
	m := s.inline[f.File]
	if m == nil {
		return false
	}
	for _, directiveLine := range []int{f.Line, f.Line - 1} {
		ids, ok := m[directiveLine]
		if !ok {
			continue
		}
		if len(ids) == 0 {
			return true
		}
		for _, id := range ids {
			if id == f.RuleID {
				return true
			}
		}
	}
	return false
}

// suppressedByFile applies ignore-file entries. A context entry matches
// the finding's context token, its file path, or its rendered location,
// always exactly.
func (s *Set) suppressedByFile(f *rules.Finding) bool {
	if s.global[f.RuleID] {
		return true
	}
	ctxs := s.scoped[f.RuleID]
	if ctxs == nil {
		return false
	}
	if ctxs[f.Context] {
		return true
	}
	if f.File != "" && ctxs[f.File] {
		return true
	}
	return ctxs[f.Location()]
}
