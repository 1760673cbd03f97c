// Package cost attaches illustrative spend figures to volume-sensitive
// findings. The numbers are order-of-magnitude illustrations from a
// static rate table and an assumed request volume, never a billing
// prediction, and every annotation says so.
package cost

import (
	"fmt"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/rules"
)

// Pricing maps a cost operation tag to its USD price per operation.
type Pricing map[string]float64

// PricingDate records when DefaultPricing was last checked against the
// public rate card.
const PricingDate = "2025-05"

// DefaultPricing returns the static rate table, USD per single operation
// on the Workers paid tier.
func DefaultPricing() Pricing {
	return Pricing{
		"kv_write":    5.00 / 1e6,  // $5.00 per million KV writes
		"d1_query":    1.00 / 1e6,  // rows-read proxy, $1.00 per million queries
		"queue_retry": 0.40 / 1e6,  // $0.40 per million queue operations
		"cron_run":    0.30 / 1e6,  // cron runs bill as standard invocations
		"ai_run":      11.00 / 1e6, // neuron proxy, about 1k neurons per inference
	}
}

// cronRunsPerDay is the volume of an every-minute schedule, the only
// cron shape the checks flag.
const cronRunsPerDay = 1440

// Annotate appends a cost illustration to each volume-sensitive finding
// carrying a priced cost operation, and returns the slice. Findings
// without a tag, or whose rule is not volume-sensitive, pass through
// untouched.
func Annotate(findings []rules.Finding, catalog []rules.RuleDefinition, table Pricing, requestsPerDay int) []rules.Finding {
	sensitive := make(map[string]bool, len(catalog))
	for _, def := range catalog {
		if def.VolumeSensitive {
			sensitive[def.ID] = true
		}
	}
	for i := range findings {
		f := &findings[i]
		if f.CostOp == "" || !sensitive[f.RuleID] {
			continue
		}
		perOp, ok := table[f.CostOp]
		if !ok {
			continue
		}
		f.Message += illustration(f.CostOp, perOp, requestsPerDay)
	}
	return findings
}

func illustration(op string, perOp float64, requestsPerDay int) string {
	ops := requestsPerDay
	volume := fmt.Sprintf("if this runs once per request at %d requests/day", requestsPerDay)
	if op == "cron_run" {
		ops = cronRunsPerDay
		volume = fmt.Sprintf("at %d runs/day from an every-minute schedule", cronRunsPerDay)
	}
	day := float64(ops) * perOp
	return fmt.Sprintf(" [cost illustration: %s, about %s/day or %s/month. Assumed volume, not measured]",
		volume, usd(day), usd(day*30))
}

// usd formats small per-day figures without rounding them to zero.
func usd(v float64) string {
	if v >= 0.01 {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("$%.4f", v)
}
