package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/littlebearapps/cloudflare-engineer-sub000/internal/rules"
)

var rulesOutput string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the pre-deploy validation rules",
	Long: `List every rule the pre-deploy validator runs, with its severity and
detection kind. Rules marked $ are volume-sensitive: their findings
carry a cost projection. Any rule id can be suppressed via inline
@pre-deploy-ok directives or a .predeployignore file, or promoted to
blocking with a !RULE_ID entry.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesOutput, "output", "table", "Output format: table, json")
}

func runRules(cmd *cobra.Command, args []string) error {
	catalog := rules.Catalog()
	switch rulesOutput {
	case "json":
		type entry struct {
			ID              string `json:"id"`
			Category        string `json:"category"`
			Severity        string `json:"severity"`
			Kind            string `json:"kind"`
			Summary         string `json:"summary"`
			VolumeSensitive bool   `json:"volume_sensitive,omitempty"`
		}
		out := make([]entry, 0, len(catalog))
		for _, def := range catalog {
			out = append(out, entry{
				ID:              def.ID,
				Category:        def.Category,
				Severity:        string(def.Severity),
				Kind:            string(def.Kind),
				Summary:         def.Summary,
				VolumeSensitive: def.VolumeSensitive,
			})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal catalog: %w", err)
		}
		fmt.Println(string(data))
		return nil

	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSEVERITY\tKIND\tSUMMARY")
		for _, def := range catalog {
			summary := def.Summary
			if def.VolumeSensitive {
				summary += " ($)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.ID, def.Severity, def.Kind, summary)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown output format %q (use table or json)", rulesOutput)
	}
}
