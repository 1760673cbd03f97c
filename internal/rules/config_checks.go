package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Checks in this file read NormalizedConfig directly (CONFIG detection
// kind). Every one of them returns nothing when no config was parsed;
// the pipeline reports that situation separately.

var secretKeyPattern = regexp.MustCompile(`(?i)API_KEY|SECRET|PASSWORD|TOKEN|PRIVATE|CREDENTIAL`)

// checkPlaintextSecrets flags vars whose key names a secret and whose
// value looks real rather than a placeholder.
func checkPlaintextSecrets(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	keys := make([]string, 0, len(in.Config.Vars))
	for k := range in.Config.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Finding
	for _, k := range keys {
		v := in.Config.Vars[k]
		if !secretKeyPattern.MatchString(k) {
			continue
		}
		if len(v) <= 8 || strings.HasPrefix(v, "${") {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Potential secret in plaintext: vars.%s", k),
			Fix:       fmt.Sprintf("Use: wrangler secret put %s", k),
			ConfigKey: "vars." + k,
			Context:   k,
		})
	}
	return out, nil
}

// checkWorkersDevExposure flags workers_dev = true next to production
// routes: the workers.dev URL serves the same code with none of the
// zone's WAF or Access rules.
func checkWorkersDevExposure(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || cfg.WorkersDev == nil || !*cfg.WorkersDev || len(cfg.Routes) == 0 {
		return nil, nil
	}
	return []Finding{{
		Message:   "workers_dev is enabled alongside production routes; the workers.dev URL bypasses zone security",
		Fix:       "Set workers_dev = false for production deploys",
		ConfigKey: "workers_dev",
	}}, nil
}

// checkInsecureOrigins flags plain-HTTP origins in vars.
func checkInsecureOrigins(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	keys := make([]string, 0, len(in.Config.Vars))
	for k := range in.Config.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Finding
	for _, k := range keys {
		v := strings.ToLower(in.Config.Vars[k])
		if !strings.HasPrefix(v, "http://") {
			continue
		}
		if strings.Contains(v, "localhost") || strings.Contains(v, "127.0.0.1") {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("vars.%s is a plain http:// origin", k),
			Fix:       "Use https:// for non-local origins",
			ConfigKey: "vars." + k,
			Context:   k,
		})
	}
	return out, nil
}

func isDLQName(name string) bool {
	return strings.HasSuffix(name, "-dlq") || strings.Contains(strings.ToLower(name), "dead_letter")
}

// checkQueueDLQ flags queue consumers with no dead letter queue. Queues
// that are themselves DLQs by naming convention are skipped.
func checkQueueDLQ(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	var out []Finding
	for i, c := range in.Config.Consumers {
		name := c.Queue
		if name == "" {
			name = fmt.Sprintf("consumer[%d]", i)
		}
		if c.DeadLetterQueue != "" || isDLQName(name) {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Queue '%s' missing dead_letter_queue", name),
			Fix:       fmt.Sprintf(`Add: "dead_letter_queue": "%s-dlq"`, name),
			ConfigKey: fmt.Sprintf("queues.consumers[%d]", i),
			Context:   name,
		})
	}
	return out, nil
}

// checkQueueConcurrency flags consumers with no max_concurrency cap.
func checkQueueConcurrency(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	var out []Finding
	for i, c := range in.Config.Consumers {
		if c.MaxConcurrency != nil {
			continue
		}
		name := c.Queue
		if name == "" {
			name = fmt.Sprintf("consumer[%d]", i)
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Queue '%s' has no max_concurrency cap; a backlog can scale consumers without bound", name),
			Fix:       `Add: "max_concurrency": 2 and raise it deliberately`,
			ConfigKey: fmt.Sprintf("queues.consumers[%d]", i),
			Context:   name,
		})
	}
	return out, nil
}

// checkDOMigrations flags locally-implemented Durable Object classes
// that no migrations entry covers; deploys of new classes fail without
// one.
func checkDOMigrations(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	migrated := in.Config.MigratedClasses()
	var out []Finding
	for _, do := range in.Config.DurableObjects {
		if do.ScriptName != "" || do.ClassName == "" {
			continue
		}
		if migrated[do.ClassName] {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Durable Object class '%s' has no migrations entry", do.ClassName),
			Fix:       fmt.Sprintf(`Add: [[migrations]] tag = "v1", new_sqlite_classes = ["%s"]`, do.ClassName),
			ConfigKey: "durable_objects.bindings",
			Context:   do.Name,
		})
	}
	return out, nil
}

// checkQueueRetries flags retry budgets above 2. Wrangler's default is 3,
// so an absent max_retries is flagged too; every retry of a paid
// operation bills again.
func checkQueueRetries(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	var out []Finding
	for i, c := range in.Config.Consumers {
		retries := 3
		suffix := " (default)"
		if c.MaxRetries != nil {
			retries = *c.MaxRetries
			suffix = ""
		}
		if retries <= 2 {
			continue
		}
		name := c.Queue
		if name == "" {
			name = fmt.Sprintf("consumer[%d]", i)
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Queue '%s' has max_retries=%d%s (each retry costs)", name, retries, suffix),
			Fix:       "Set max_retries to 1 if consumer is idempotent",
			ConfigKey: fmt.Sprintf("queues.consumers[%d]", i),
			Context:   name,
			CostOp:    "queue_retry",
		})
	}
	return out, nil
}

var everyMinuteCron = regexp.MustCompile(`^\s*(\*|\*/1)\s+\*\s+\*\s+\*\s+\*\s*$`)

// checkEveryMinuteCron flags crons that fire every minute.
func checkEveryMinuteCron(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	var out []Finding
	for _, cron := range in.Config.Crons {
		if !everyMinuteCron.MatchString(cron) {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Cron '%s' fires every minute (43200 invocations/month)", cron),
			Fix:       "Widen the schedule or batch the work",
			ConfigKey: "triggers.crons",
			Context:   cron,
			CostOp:    "cron_run",
		})
	}
	return out, nil
}

// checkCPULimit flags the absence of a CPU time cap.
func checkCPULimit(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || cfg.Limits.CPUMs != nil {
		return nil, nil
	}
	return []Finding{{
		Message:   "No limits.cpu_ms set; a runaway request can burn the full 30s CPU allowance",
		Fix:       "Add: [limits] cpu_ms = 50 (raise only with evidence)",
		ConfigKey: "limits.cpu_ms",
	}}, nil
}

// checkLogsEnabled flags disabled Workers Logs.
func checkLogsEnabled(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || cfg.LogsEnabled() {
		return nil, nil
	}
	return []Finding{{
		Message:   "Observability logs not enabled",
		Fix:       `Add: "observability": { "logs": { "enabled": true } }`,
		ConfigKey: "observability.logs.enabled",
	}}, nil
}

// checkFullSampling flags logs running at a 100% head sampling rate.
func checkFullSampling(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || !cfg.LogsEnabled() || cfg.SamplingRate() < 1 {
		return nil, nil
	}
	return []Finding{{
		Message:   "Logs sample every request (head_sampling_rate = 1); log volume bills at full traffic",
		Fix:       `Set "head_sampling_rate": 0.05 and tail-sample errors`,
		ConfigKey: "observability.logs.head_sampling_rate",
	}}, nil
}

// checkSmartPlacement flags workers not using Smart Placement.
func checkSmartPlacement(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || cfg.Placement.Mode == "smart" {
		return nil, nil
	}
	return []Finding{{
		Message:   "Smart Placement not enabled",
		Fix:       `Add: "placement": { "mode": "smart" }`,
		ConfigKey: "placement.mode",
	}}, nil
}

// checkSelfServiceBinding flags a service binding that points at this
// worker itself: a request through it re-enters the same worker.
func checkSelfServiceBinding(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || cfg.Name == "" {
		return nil, nil
	}
	var out []Finding
	for _, s := range cfg.Services {
		if s.Service != cfg.Name {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Service binding '%s' targets this worker ('%s') itself", s.Binding, s.Service),
			Fix:       "Bind the intended downstream worker, or guard re-entry explicitly",
			ConfigKey: "services",
			Context:   s.Binding,
		})
	}
	return out, nil
}

const compatibilityStaleAfter = 365 * 24 * time.Hour

// checkCompatibilityDate flags compatibility dates more than a year old.
func checkCompatibilityDate(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || cfg.CompatibilityDate == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", cfg.CompatibilityDate)
	if err != nil {
		return nil, nil
	}
	if in.Now.Sub(date) <= compatibilityStaleAfter {
		return nil, nil
	}
	return []Finding{{
		Message:   fmt.Sprintf("compatibility_date %s is over a year old; new runtime defaults are not applied", cfg.CompatibilityDate),
		Fix:       "Bump compatibility_date and retest",
		ConfigKey: "compatibility_date",
	}}, nil
}

var gatewaySignal = regexp.MustCompile(`(?i)gateway\s*:\s*\{|\bAI_GATEWAY\b|gateway_id`)

// checkAIGateway flags an AI binding with no AI Gateway reference
// anywhere in config or source. Without a gateway there is no cache, no
// rate limit, and no spend cap in front of model calls.
func checkAIGateway(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || cfg.AI == nil {
		return nil, nil
	}
	for _, v := range cfg.Vars {
		if gatewaySignal.MatchString(v) {
			return nil, nil
		}
	}
	if in.Corpus != nil {
		for _, f := range in.Corpus.Files {
			if gatewaySignal.MatchString(f.Text) {
				return nil, nil
			}
		}
	}
	return []Finding{{
		Message:   fmt.Sprintf("AI binding '%s' is used without an AI Gateway reference", cfg.AI.Binding),
		Fix:       "Route model calls through an AI Gateway for caching and spend caps",
		ConfigKey: "ai.binding",
		Context:   cfg.AI.Binding,
	}}, nil
}

// checkLogpush flags logpush exports, which can carry request payloads to
// an external sink.
func checkLogpush(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || cfg.Logpush == nil || !*cfg.Logpush {
		return nil, nil
	}
	return []Finding{{
		Message:   "logpush is enabled; exported logs can include request payloads",
		Fix:       "Confirm the logpush job scrubs sensitive fields",
		ConfigKey: "logpush",
	}}, nil
}
