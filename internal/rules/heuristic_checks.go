package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/wrangler"
)

// Checks in this file infer from names and proxy signals (HEURISTIC
// detection kind). They are the lowest-confidence tier, so every message
// tells the reader to verify manually.

var coldTierName = regexp.MustCompile(`(?i)-ia\b|infrequent|archive|cold|glacier`)

// checkInfrequentAccessBucket flags bucket names that look like an
// infrequent-access tier. The storage class is not in the worker config,
// so naming is the only available signal.
func checkInfrequentAccessBucket(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	var out []Finding
	for _, b := range in.Config.R2 {
		if b.BucketName == "" || !coldTierName.MatchString(b.BucketName) {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Bucket '%s' looks like an infrequent-access tier: IA billing adds retrieval fees and a minimum storage duration. Verify the storage class manually", b.BucketName),
			Fix:       "Confirm the bucket's storage class matches its read pattern",
			ConfigKey: fmt.Sprintf("r2_buckets (binding %s)", b.Binding),
			Context:   b.BucketName,
		})
	}
	return out, nil
}

var sensitiveRoute = regexp.MustCompile(`(?i)/(?:admin|internal|debug)\b`)

var authSignal = regexp.MustCompile(`(?i)authorization|cf-access-jwt-assertion|verify(?:jwt|token)|basicauth|bearer\s`)

// checkUnprotectedAdminRoute flags admin-looking routes when nothing in
// the corpus resembles an auth check.
func checkUnprotectedAdminRoute(in *Input) ([]Finding, error) {
	for _, f := range in.Corpus.Files {
		if authSignal.MatchString(f.Text) {
			return nil, nil
		}
	}

	var out []Finding
	if in.Config != nil {
		for _, r := range in.Config.Routes {
			if !sensitiveRoute.MatchString(r.Pattern) {
				continue
			}
			out = append(out, Finding{
				Message:   fmt.Sprintf("Route '%s' looks administrative and no auth check was found in the source. Verify access control manually", r.Pattern),
				Fix:       "Front it with Cloudflare Access or check credentials in the handler",
				ConfigKey: "routes",
				Context:   r.Pattern,
			})
		}
	}
	for _, f := range in.Corpus.Files {
		for i, line := range f.Lines {
			if !strings.Contains(line, "'/") && !strings.Contains(line, "\"/") {
				continue
			}
			if !sensitiveRoute.MatchString(line) {
				continue
			}
			out = append(out, Finding{
				Message: "Handler path looks administrative and no auth check was found in the source. Verify access control manually",
				Fix:     "Front it with Cloudflare Access or check credentials in the handler",
				File:    f.Path,
				Line:    i + 1,
				Context: f.Path,
			})
		}
	}
	return out, nil
}

// Substring match, not word-boundary: DO class names are CamelCase
// ("UserSession"), which word boundaries would miss.
var perUserName = regexp.MustCompile(`(?i)user|session|visitor|customer|client`)

// checkPerUserObjects flags Durable Object classes whose names suggest
// one object per user; object duration billing multiplies by active
// users.
func checkPerUserObjects(in *Input) ([]Finding, error) {
	if in.Config == nil {
		return nil, nil
	}
	var out []Finding
	for _, do := range in.Config.DurableObjects {
		name := do.ClassName
		if name == "" {
			name = do.Name
		}
		if !perUserName.MatchString(name) {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("Durable Object '%s' is named like a per-user object: duration billing scales with your user count. Verify object lifetime manually", name),
			Fix:       "Make objects idle out quickly or shard by something coarser",
			ConfigKey: "durable_objects.bindings",
			Context:   do.Name,
		})
	}
	return out, nil
}

var piiName = regexp.MustCompile(`(?i)pii|personal|profile|email|user_data|customer_data|gdpr`)

// checkPIIFullSampling flags PII-named resources while logs sample every
// request.
func checkPIIFullSampling(in *Input) ([]Finding, error) {
	cfg := in.Config
	if cfg == nil || !cfg.LogsEnabled() || cfg.SamplingRate() < 1 {
		return nil, nil
	}
	var out []Finding
	for _, n := range collectBindingNames(cfg) {
		if !piiName.MatchString(n) {
			continue
		}
		out = append(out, Finding{
			Message:   fmt.Sprintf("'%s' is named like a personal-data store and logs sample every request. Verify log redaction manually", n),
			Fix:       "Lower head_sampling_rate or scrub identifiers before logging",
			ConfigKey: "observability.logs.head_sampling_rate",
			Context:   n,
		})
	}
	return out, nil
}

// collectBindingNames gathers binding, bucket, database, and var names,
// deduplicated and in stable order.
func collectBindingNames(cfg *wrangler.Config) []string {
	var names []string
	for _, d := range cfg.D1 {
		names = append(names, d.Binding, d.DatabaseName)
	}
	for _, b := range cfg.R2 {
		names = append(names, b.Binding, b.BucketName)
	}
	for _, k := range cfg.KV {
		names = append(names, k.Binding)
	}
	for v := range cfg.Vars {
		names = append(names, v)
	}
	sort.Strings(names)
	var out []string
	for i, n := range names {
		if n == "" || (i > 0 && n == names[i-1]) {
			continue
		}
		out = append(out, n)
	}
	return out
}
