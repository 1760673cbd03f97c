package rules

// Catalog returns the full rule set, built fresh so callers can hold it
// without sharing state. Order is category-grouped and stable; the
// report does its own sorting, but stable catalog order keeps engine
// output deterministic on its own.
//
// Rule ids are append-only: retired ids are never reused, which is why
// the LOOP series is not contiguous.
func Catalog() []RuleDefinition {
	return []RuleDefinition{
		{
			ID: "SEC001", Category: "SEC", Severity: SevCritical, Kind: KindConfig,
			Summary: "Plaintext secret in config vars",
			Check:   checkPlaintextSecrets,
		},
		{
			ID: "SEC002", Category: "SEC", Severity: SevMedium, Kind: KindConfig,
			Summary: "workers_dev enabled alongside production routes",
			Check:   checkWorkersDevExposure,
		},
		{
			ID: "SEC003", Category: "SEC", Severity: SevMedium, Kind: KindConfig,
			Summary: "Plain http:// origin in config vars",
			Check:   checkInsecureOrigins,
		},
		{
			ID: "SEC004", Category: "SEC", Severity: SevHigh, Kind: KindStatic,
			Summary: "Hardcoded credential shape in source",
			Check:   checkHardcodedSecrets,
		},
		{
			ID: "SEC005", Category: "SEC", Severity: SevMedium, Kind: KindStatic,
			Summary: "CORS wildcard origin",
			Check:   checkCORSWildcard,
		},
		{
			ID: "RES001", Category: "RES", Severity: SevHigh, Kind: KindConfig,
			Summary: "Queue consumer without a dead letter queue",
			Check:   checkQueueDLQ,
		},
		{
			ID: "RES002", Category: "RES", Severity: SevLow, Kind: KindConfig,
			Summary: "Queue consumer without a max_concurrency cap",
			Check:   checkQueueConcurrency,
		},
		{
			ID: "RES003", Category: "RES", Severity: SevMedium, Kind: KindConfig,
			Summary: "Durable Object class with no migrations entry",
			Check:   checkDOMigrations,
		},
		{
			ID: "RES004", Category: "RES", Severity: SevMedium, Kind: KindStatic,
			Summary: "Empty catch block",
			Check:   checkEmptyCatch,
		},
		{
			ID: "COST001", Category: "COST", Severity: SevMedium, Kind: KindConfig,
			Summary: "Queue retry budget above 2",
			Check:   checkQueueRetries, VolumeSensitive: true,
		},
		{
			ID: "COST002", Category: "COST", Severity: SevLow, Kind: KindConfig,
			Summary: "Cron trigger firing every minute",
			Check:   checkEveryMinuteCron, VolumeSensitive: true,
		},
		{
			ID: "COST003", Category: "COST", Severity: SevLow, Kind: KindHeuristic,
			Summary: "Durable Object named per user",
			Check:   checkPerUserObjects,
		},
		{
			ID: "PERF001", Category: "PERF", Severity: SevLow, Kind: KindConfig,
			Summary: "Smart Placement not enabled",
			Check:   checkSmartPlacement,
		},
		{
			ID: "PERF002", Category: "PERF", Severity: SevLow, Kind: KindStatic,
			Summary: "JSON round-trip deep clone",
			Check:   checkJSONClone,
		},
		{
			ID: "ARCH001", Category: "ARCH", Severity: SevHigh, Kind: KindConfig,
			Summary: "Service binding targeting this worker itself",
			Check:   checkSelfServiceBinding,
		},
		{
			ID: "ARCH002", Category: "ARCH", Severity: SevLow, Kind: KindConfig,
			Summary: "compatibility_date over a year old",
			Check:   checkCompatibilityDate,
		},
		{
			ID: "ARCH003", Category: "ARCH", Severity: SevCritical, Kind: KindStatic,
			Summary: "fetch() echoing the inbound request URL (self-recursion)",
			Check:   checkSelfRecursion,
		},
		{
			ID: "BUDGET001", Category: "BUDGET", Severity: SevMedium, Kind: KindConfig,
			Summary: "No limits.cpu_ms kill-switch",
			Check:   checkCPULimit,
		},
		{
			ID: "BUDGET002", Category: "BUDGET", Severity: SevHigh, Kind: KindStatic,
			Summary: "Entry module size near the bundle limit",
			Check:   checkBundleSize,
		},
		{
			ID: "BUDGET003", Category: "BUDGET", Severity: SevLow, Kind: KindStatic,
			Summary: "Bundle-heavy dependency in package.json",
			Check:   checkHeavyDependencies,
		},
		{
			ID: "LOOP001", Category: "LOOP", Severity: SevMedium, Kind: KindStatic,
			Summary: "Storage write inside a loop body",
			Check:   checkWriteInLoop, VolumeSensitive: true,
		},
		{
			ID: "LOOP007", Category: "LOOP", Severity: SevCritical, Kind: KindStatic,
			Summary: "Unbounded loop with no exit",
			Check:   checkUnboundedLoop,
		},
		{
			ID: "QUERY001", Category: "QUERY", Severity: SevHigh, Kind: KindStatic,
			Summary: "Database query inside a loop body (N+1)",
			Check:   checkQueryInLoop, VolumeSensitive: true,
		},
		{
			ID: "QUERY002", Category: "QUERY", Severity: SevMedium, Kind: KindStatic,
			Summary: "SELECT * in a query string",
			Check:   checkSelectStar,
		},
		{
			ID: "R2001", Category: "R2", Severity: SevMedium, Kind: KindHeuristic,
			Summary: "Bucket named like an infrequent-access tier",
			Check:   checkInfrequentAccessBucket,
		},
		{
			ID: "OBS001", Category: "OBS", Severity: SevLow, Kind: KindConfig,
			Summary: "Observability logs not enabled",
			Check:   checkLogsEnabled,
		},
		{
			ID: "OBS002", Category: "OBS", Severity: SevLow, Kind: KindConfig,
			Summary: "Logs sampling every request",
			Check:   checkFullSampling,
		},
		{
			ID: "AI001", Category: "AI", Severity: SevMedium, Kind: KindConfig,
			Summary: "AI binding with no AI Gateway in front",
			Check:   checkAIGateway,
		},
		{
			ID: "AI002", Category: "AI", Severity: SevMedium, Kind: KindStatic,
			Summary: "AI inference call inside a loop body",
			Check:   checkAIInLoop, VolumeSensitive: true,
		},
		{
			ID: "ZT001", Category: "ZT", Severity: SevMedium, Kind: KindHeuristic,
			Summary: "Admin-looking route with no discoverable auth",
			Check:   checkUnprotectedAdminRoute,
		},
		{
			ID: "PRIV001", Category: "PRIV", Severity: SevMedium, Kind: KindConfig,
			Summary: "logpush export enabled",
			Check:   checkLogpush,
		},
		{
			ID: "PRIV002", Category: "PRIV", Severity: SevLow, Kind: KindHeuristic,
			Summary: "PII-named resource with full-sample logging",
			Check:   checkPIIFullSampling,
		},
	}
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (RuleDefinition, bool) {
	for _, def := range Catalog() {
		if def.ID == id {
			return def, true
		}
	}
	return RuleDefinition{}, false
}
