package rules

import (
	"strings"
	"testing"
)

func TestSelfRecursion_Critical(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"request url", "const resp = await fetch(request.url);"},
		{"req url in template", "const resp = await fetch(`${req.url}?retry=1`);"},
		{"request passthrough", "return fetch(request);"},
		{"req with init", "const resp = await fetch(req, { headers });"},
		{"new request wrapper", "return fetch(new Request(request, { method: 'GET' }));"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputFor(nil, map[string]string{"src/index.ts": tt.line})
			findings := evalRule(t, "ARCH003", in)
			if len(findings) != 1 {
				t.Fatalf("findings = %d", len(findings))
			}
			if findings[0].Severity != SevCritical {
				t.Errorf("Severity = %s", findings[0].Severity)
			}
		})
	}
}

func TestSelfRecursion_NotFlagged(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"upstream url", "const resp = await fetch(upstreamUrl);"},
		{"literal origin", "const resp = await fetch('https://api.example.com/v1');"},
		{"cloned request", "const resp = await fetch(request.clone());"},
		{"service binding", "const resp = await env.AUTH.fetch(authUrl);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputFor(nil, map[string]string{"src/index.ts": tt.line})
			if findings := evalRule(t, "ARCH003", in); len(findings) != 0 {
				t.Errorf("findings = %v", ruleIDs(findings))
			}
		})
	}
}

func TestSelfRecursion_GuardDowngrades(t *testing.T) {
	src := strings.Join([]string{
		"const depth = parseInt(request.headers.get('x-depth') ?? '0');",
		"if (depth > 3) console.warn('deep recursion');",
		"const resp = await fetch(request.url);",
	}, "\n")
	findings := evalRule(t, "ARCH003", inputFor(nil, map[string]string{"src/index.ts": src}))
	if len(findings) != 1 {
		t.Fatalf("findings = %d", len(findings))
	}
	f := findings[0]
	if f.Severity != SevHigh {
		t.Errorf("Severity = %s, want downgrade to HIGH", f.Severity)
	}
	if !strings.Contains(f.Message, "does not clearly stop") {
		t.Errorf("Message = %q", f.Message)
	}
	if f.Line != 3 {
		t.Errorf("Line = %d", f.Line)
	}
}

func TestSelfRecursion_ActingGuardSuppresses(t *testing.T) {
	src := strings.Join([]string{
		"const depth = Number(request.headers.get('x-recursion-depth') ?? 0);",
		"if (depth >= 2) {",
		"  return new Response('recursion stopped', { status: 508 });",
		"}",
		"const next = new Request(request.url, { headers: bumped });",
		"const resp = await fetch(next.url ?? request.url);",
	}, "\n")
	in := inputFor(nil, map[string]string{"src/index.ts": src})
	if findings := evalRule(t, "ARCH003", in); len(findings) != 0 {
		t.Errorf("findings = %v", ruleIDs(findings))
	}
}

func TestSelfRecursion_GuardOutsideWindow(t *testing.T) {
	lines := []string{
		"if (depth >= 2) {",
		"  return tooDeep();",
		"}",
	}
	for i := 0; i < guardWindow+2; i++ {
		lines = append(lines, "noop();")
	}
	lines = append(lines, "const resp = await fetch(request.url);")
	src := strings.Join(lines, "\n")
	findings := evalRule(t, "ARCH003", inputFor(nil, map[string]string{"src/index.ts": src}))
	if len(findings) != 1 || findings[0].Severity != SevCritical {
		t.Errorf("findings = %+v", findings)
	}
}
