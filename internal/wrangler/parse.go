package wrangler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Dialect of a configuration file.
type Dialect int

const (
	DialectTOML Dialect = iota
	DialectJSONC
)

// DialectForPath infers the dialect from the file extension. Anything
// that is not .toml is treated as JSON with comments, which covers both
// .jsonc and plain .json.
func DialectForPath(path string) Dialect {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return DialectTOML
	}
	return DialectJSONC
}

// ParseError reports a configuration file that is not syntactically valid
// in its dialect. Line is 1-based, 0 when unknown.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseFile reads and parses the config file at path.
func ParseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(path, data, DialectForPath(path))
}

// Parse builds a Config from raw text in the given dialect. A syntax
// error in either dialect comes back as *ParseError; there is no partial
// recovery.
func Parse(path string, src []byte, d Dialect) (*Config, error) {
	raw := make(map[string]interface{})
	switch d {
	case DialectTOML:
		if err := toml.Unmarshal(src, &raw); err != nil {
			line := 0
			var tomlErr toml.ParseError
			if errors.As(err, &tomlErr) {
				line = tomlErr.Position.Line
			}
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
	case DialectJSONC:
		stripped := StripJSONC(src)
		if err := json.Unmarshal(stripped, &raw); err != nil {
			line := 0
			var synErr *json.SyntaxError
			if errors.As(err, &synErr) {
				line = lineOfOffset(stripped, synErr.Offset)
			}
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
	default:
		return nil, &ParseError{Path: path, Err: fmt.Errorf("unknown dialect %d", d)}
	}
	return normalize(path, raw), nil
}

func lineOfOffset(src []byte, off int64) int {
	if off < 0 || off > int64(len(src)) {
		return 0
	}
	line := 1
	for _, c := range src[:off] {
		if c == '\n' {
			line++
		}
	}
	return line
}

// normalize promotes the known wrangler schema out of the raw tree.
// Unknown keys stay in Raw; values of an unexpected type read as absent.
func normalize(path string, raw map[string]interface{}) *Config {
	cfg := &Config{
		Path:              path,
		Raw:               raw,
		Name:              asString(raw["name"]),
		Main:              asString(raw["main"]),
		CompatibilityDate: asString(raw["compatibility_date"]),
		WorkersDev:        asBool(raw["workers_dev"]),
		Logpush:           asBool(raw["logpush"]),
		Vars:              make(map[string]string),
	}

	cfg.Routes = appendRoute(cfg.Routes, raw["route"])
	for _, r := range asList(raw["routes"]) {
		cfg.Routes = appendRoute(cfg.Routes, r)
	}
	cfg.Crons = asStrings(asTable(raw["triggers"])["crons"])

	for k, v := range asTable(raw["vars"]) {
		if s, ok := v.(string); ok {
			cfg.Vars[k] = s
		}
	}

	for _, t := range asTables(raw["d1_databases"]) {
		cfg.D1 = append(cfg.D1, D1Database{
			Binding:      asString(t["binding"]),
			DatabaseName: asString(t["database_name"]),
			DatabaseID:   asString(t["database_id"]),
		})
	}
	for _, t := range asTables(raw["r2_buckets"]) {
		cfg.R2 = append(cfg.R2, R2Bucket{
			Binding:    asString(t["binding"]),
			BucketName: asString(t["bucket_name"]),
		})
	}
	for _, t := range asTables(raw["kv_namespaces"]) {
		cfg.KV = append(cfg.KV, KVNamespace{
			Binding: asString(t["binding"]),
			ID:      asString(t["id"]),
		})
	}

	queues := asTable(raw["queues"])
	for _, t := range asTables(queues["producers"]) {
		cfg.Producers = append(cfg.Producers, QueueProducer{
			Binding: asString(t["binding"]),
			Queue:   asString(t["queue"]),
		})
	}
	for _, t := range asTables(queues["consumers"]) {
		cfg.Consumers = append(cfg.Consumers, QueueConsumer{
			Queue:           asString(t["queue"]),
			MaxBatchSize:    asInt(t["max_batch_size"]),
			MaxRetries:      asInt(t["max_retries"]),
			MaxConcurrency:  asInt(t["max_concurrency"]),
			DeadLetterQueue: asString(t["dead_letter_queue"]),
		})
	}

	for _, t := range asTables(asTable(raw["durable_objects"])["bindings"]) {
		cfg.DurableObjects = append(cfg.DurableObjects, DurableObject{
			Name:       asString(t["name"]),
			ClassName:  asString(t["class_name"]),
			ScriptName: asString(t["script_name"]),
		})
	}
	for _, t := range asTables(raw["migrations"]) {
		cfg.Migrations = append(cfg.Migrations, Migration{
			Tag:              asString(t["tag"]),
			NewClasses:       asStrings(t["new_classes"]),
			NewSqliteClasses: asStrings(t["new_sqlite_classes"]),
		})
	}
	for _, t := range asTables(raw["services"]) {
		cfg.Services = append(cfg.Services, ServiceBinding{
			Binding:     asString(t["binding"]),
			Service:     asString(t["service"]),
			Environment: asString(t["environment"]),
		})
	}
	if b := asString(asTable(raw["ai"])["binding"]); b != "" {
		cfg.AI = &AIBinding{Binding: b}
	}
	for _, t := range asTables(raw["vectorize"]) {
		cfg.Vectorize = append(cfg.Vectorize, VectorizeIndex{
			Binding:   asString(t["binding"]),
			IndexName: asString(t["index_name"]),
		})
	}

	obs := asTable(raw["observability"])
	cfg.Observability.Enabled = asBool(obs["enabled"])
	cfg.Observability.HeadSamplingRate = asFloat(obs["head_sampling_rate"])
	logs := asTable(obs["logs"])
	cfg.Observability.Logs.Enabled = asBool(logs["enabled"])
	cfg.Observability.Logs.HeadSamplingRate = asFloat(logs["head_sampling_rate"])

	cfg.Limits.CPUMs = asInt(asTable(raw["limits"])["cpu_ms"])
	cfg.Placement.Mode = asString(asTable(raw["placement"])["mode"])

	return cfg
}

func appendRoute(routes []Route, v interface{}) []Route {
	switch t := v.(type) {
	case string:
		if t != "" {
			routes = append(routes, Route{Pattern: t})
		}
	case map[string]interface{}:
		r := Route{
			Pattern:  asString(t["pattern"]),
			ZoneName: asString(t["zone_name"]),
		}
		if b := asBool(t["custom_domain"]); b != nil {
			r.CustomDomain = *b
		}
		if r.Pattern != "" {
			routes = append(routes, r)
		}
	}
	return routes
}

// Coercion helpers. TOML integers arrive as int64, JSON numbers as
// float64; both dialects funnel through these.

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func asInt(v interface{}) *int {
	switch t := v.(type) {
	case int64:
		n := int(t)
		return &n
	case float64:
		n := int(t)
		return &n
	case int:
		n := t
		return &n
	}
	return nil
}

func asFloat(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		f := t
		return &f
	case int64:
		f := float64(t)
		return &f
	case int:
		f := float64(t)
		return &f
	}
	return nil
}

func asTable(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asList(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	}
	return nil
}

func asTables(v interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	for _, e := range asList(v) {
		if m, ok := e.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func asStrings(v interface{}) []string {
	var out []string
	for _, e := range asList(v) {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
