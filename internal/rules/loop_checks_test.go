package rules

import (
	"strings"
	"testing"
)

func TestFindLoopSpans(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		want      int
		unbounded bool
	}{
		{
			"for of",
			"for (const item of items) {\n  use(item);\n}",
			1, false,
		},
		{
			"classic for",
			"for (let i = 0; i < n; i++) {\n  use(i);\n}",
			1, false,
		},
		{
			"while",
			"while (queue.length > 0) {\n  drain();\n}",
			1, false,
		},
		{
			"while true",
			"while (true) {\n  spin();\n}",
			1, true,
		},
		{
			"for semicolons",
			"for (;;) {\n  spin();\n}",
			1, true,
		},
		{
			"forEach callback",
			"items.forEach((item) => {\n  use(item);\n});",
			1, false,
		},
		{
			"map with destructured arg",
			"items.map(({ id, total }) => {\n  use(id, total);\n});",
			1, false,
		},
		{
			"map without body braces",
			"const ids = items.map(toId);",
			0, false,
		},
		{
			"braceless for",
			"for (let i = 0; i < n; i++) use(i);",
			0, false,
		},
		{
			"two loops",
			"for (const a of as) {\n  use(a);\n}\nwhile (busy()) {\n  wait();\n}",
			2, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := findLoopSpans(tt.src)
			if len(spans) != tt.want {
				t.Fatalf("spans = %d, want %d", len(spans), tt.want)
			}
			if tt.want == 1 && spans[0].unbounded != tt.unbounded {
				t.Errorf("unbounded = %v, want %v", spans[0].unbounded, tt.unbounded)
			}
		})
	}
}

func TestFindLoopSpans_BodyAndLine(t *testing.T) {
	src := "const x = 1;\nfor (const o of orders) {\n  await save(o);\n}"
	spans := findLoopSpans(src)
	if len(spans) != 1 {
		t.Fatalf("spans = %d", len(spans))
	}
	if spans[0].startLine != 2 {
		t.Errorf("startLine = %d", spans[0].startLine)
	}
	if !strings.Contains(spans[0].body, "save(o)") {
		t.Errorf("body = %q", spans[0].body)
	}
}

const queryLoopSrc = `export async function handle(env, orders) {
  for (const o of orders) {
    const row = await env.DB.prepare("SELECT id FROM orders WHERE id = ?").bind(o.id).first();
    use(row);
  }
}
`

func TestQueryInLoop(t *testing.T) {
	findings := evalRule(t, "QUERY001", inputFor(nil, map[string]string{"src/orders.ts": queryLoopSrc}))
	if len(findings) != 1 {
		t.Fatalf("findings = %d", len(findings))
	}
	f := findings[0]
	if f.Severity != SevHigh || f.Kind != KindStatic {
		t.Errorf("identity = %s/%s", f.Severity, f.Kind)
	}
	if f.File != "src/orders.ts" || f.Line != 2 {
		t.Errorf("location = %s:%d", f.File, f.Line)
	}
	if f.CostOp == "" {
		t.Error("query-in-loop findings should carry a cost operation")
	}
}

func TestQueryInLoop_TestFilesExcluded(t *testing.T) {
	in := inputFor(nil, map[string]string{
		"__tests__/orders.ts":  queryLoopSrc,
		"src/orders.test.ts":   queryLoopSrc,
		"test/helpers/seed.ts": queryLoopSrc,
	})
	if findings := evalRule(t, "QUERY001", in); len(findings) != 0 {
		t.Errorf("test files produced findings: %v", ruleIDs(findings))
	}
}

func TestQueryInLoop_OutsideLoop(t *testing.T) {
	src := `const row = await env.DB.prepare("SELECT id FROM orders").first();`
	in := inputFor(nil, map[string]string{"src/orders.ts": src})
	if findings := evalRule(t, "QUERY001", in); len(findings) != 0 {
		t.Errorf("findings = %v", ruleIDs(findings))
	}
}

func TestWriteInLoop(t *testing.T) {
	src := strings.Join([]string{
		"for (const e of events) {",
		"  await env.KV.put(e.key, e.value);",
		"}",
		"await env.KV.put('summary', digest);",
	}, "\n")
	findings := evalRule(t, "LOOP001", inputFor(nil, map[string]string{"src/writer.ts": src}))
	if len(findings) != 1 || findings[0].Line != 1 {
		t.Errorf("findings = %+v", findings)
	}
}

func TestWriteInLoop_QueueSend(t *testing.T) {
	src := "items.forEach((item) => {\n  env.JOBS.send(item);\n});"
	findings := evalRule(t, "LOOP001", inputFor(nil, map[string]string{"src/enqueue.ts": src}))
	if len(findings) != 1 {
		t.Errorf("findings = %d", len(findings))
	}
}

func TestUnboundedLoop(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{
			"no exit",
			"while (true) {\n  await tick();\n}",
			1,
		},
		{
			"break",
			"while (true) {\n  if (done()) break;\n  await tick();\n}",
			0,
		},
		{
			"return",
			"for (;;) {\n  if (done()) return result;\n  await tick();\n}",
			0,
		},
		{
			"throw",
			"while (true) {\n  if (tooLong()) throw new Error('cap');\n  await tick();\n}",
			0,
		},
		{
			"bounded loop",
			"for (const x of xs) {\n  use(x);\n}",
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputFor(nil, map[string]string{"src/worker.ts": tt.src})
			findings := evalRule(t, "LOOP007", in)
			if len(findings) != tt.want {
				t.Errorf("findings = %d, want %d", len(findings), tt.want)
			}
			if tt.want == 1 && findings[0].Severity != SevCritical {
				t.Errorf("Severity = %s", findings[0].Severity)
			}
		})
	}
}

func TestAIInLoop(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{
			"env AI binding",
			"for (const p of prompts) {\n  const out = await env.AI.run(model, { prompt: p });\n}",
			1,
		},
		{
			"model id literal",
			"for (const p of prompts) {\n  results.push(await ai.run('@cf/meta/llama-3-8b', p));\n}",
			1,
		},
		{
			"outside loop",
			"const out = await env.AI.run(model, { prompt });",
			0,
		},
		{
			"unrelated run call",
			"for (const j of jobs) {\n  await scheduler.run(j);\n}",
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputFor(nil, map[string]string{"src/ai.ts": tt.src})
			findings := evalRule(t, "AI002", in)
			if len(findings) != tt.want {
				t.Errorf("findings = %d, want %d", len(findings), tt.want)
			}
		})
	}
}
