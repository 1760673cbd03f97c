// Package wrangler locates and parses Cloudflare Worker configuration
// files (wrangler.toml, wrangler.jsonc, wrangler.json) into a normalized
// structure the rule checks can read without caring about dialect.
package wrangler

// Config is the normalized view of a wrangler configuration. It is built
// once per run and read-only afterward. Fields modeled as pointers
// distinguish "absent" from a zero value, which several checks rely on.
// Anything not promoted to a typed field stays reachable through Raw.
type Config struct {
	Path              string
	Name              string
	Main              string
	CompatibilityDate string
	WorkersDev        *bool
	Logpush           *bool

	Routes []Route
	Crons  []string
	Vars   map[string]string

	D1             []D1Database
	R2             []R2Bucket
	KV             []KVNamespace
	Producers      []QueueProducer
	Consumers      []QueueConsumer
	DurableObjects []DurableObject
	Migrations     []Migration
	Services       []ServiceBinding
	AI             *AIBinding
	Vectorize      []VectorizeIndex

	Observability Observability
	Limits        Limits
	Placement     Placement

	Raw map[string]interface{}
}

// Route is one entry from routes (or the singular route key). String
// entries carry only a pattern; table entries may add a zone.
type Route struct {
	Pattern      string
	ZoneName     string
	CustomDomain bool
}

type D1Database struct {
	Binding      string
	DatabaseName string
	DatabaseID   string
}

type R2Bucket struct {
	Binding    string
	BucketName string
}

type KVNamespace struct {
	Binding string
	ID      string
}

type QueueProducer struct {
	Binding string
	Queue   string
}

type QueueConsumer struct {
	Queue           string
	MaxBatchSize    *int
	MaxRetries      *int
	MaxConcurrency  *int
	DeadLetterQueue string
}

type DurableObject struct {
	Name       string
	ClassName  string
	ScriptName string
}

type Migration struct {
	Tag              string
	NewClasses       []string
	NewSqliteClasses []string
}

type ServiceBinding struct {
	Binding     string
	Service     string
	Environment string
}

type AIBinding struct {
	Binding string
}

type VectorizeIndex struct {
	Binding   string
	IndexName string
}

type Observability struct {
	Enabled          *bool
	HeadSamplingRate *float64
	Logs             ObservabilityLogs
}

type ObservabilityLogs struct {
	Enabled          *bool
	HeadSamplingRate *float64
}

type Limits struct {
	CPUMs *int
}

type Placement struct {
	Mode string
}

// LogsEnabled reports whether Workers Logs are on, reading
// observability.logs.enabled with observability.enabled as the fallback.
func (c *Config) LogsEnabled() bool {
	if c.Observability.Logs.Enabled != nil {
		return *c.Observability.Logs.Enabled
	}
	if c.Observability.Enabled != nil {
		return *c.Observability.Enabled
	}
	return false
}

// SamplingRate returns the effective head sampling rate. Wrangler's
// default when unset is full sampling (1.0).
func (c *Config) SamplingRate() float64 {
	if c.Observability.Logs.HeadSamplingRate != nil {
		return *c.Observability.Logs.HeadSamplingRate
	}
	if c.Observability.HeadSamplingRate != nil {
		return *c.Observability.HeadSamplingRate
	}
	return 1.0
}

// MigratedClasses collects every Durable Object class named by any
// migration entry.
func (c *Config) MigratedClasses() map[string]bool {
	out := make(map[string]bool)
	for _, m := range c.Migrations {
		for _, cls := range m.NewClasses {
			out[cls] = true
		}
		for _, cls := range m.NewSqliteClasses {
			out[cls] = true
		}
	}
	return out
}

// BindingKinds lists the kinds of resources this config binds, in a fixed
// display order.
func (c *Config) BindingKinds() []string {
	var kinds []string
	add := func(ok bool, name string) {
		if ok {
			kinds = append(kinds, name)
		}
	}
	add(len(c.D1) > 0, "D1")
	add(len(c.R2) > 0, "R2")
	add(len(c.KV) > 0, "KV")
	add(len(c.Producers) > 0 || len(c.Consumers) > 0, "Queues")
	add(len(c.DurableObjects) > 0, "Durable Objects")
	add(c.AI != nil, "Workers AI")
	add(len(c.Vectorize) > 0, "Vectorize")
	add(len(c.Services) > 0, "Service Bindings")
	return kinds
}
