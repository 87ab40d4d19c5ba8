// cmd/list.go

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/rules"
)

// newListCmd creates the list subcommand
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available rules and the facts they use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Rules:\n")
			for _, r := range rules.All() {
				info := r.Info()
				names := make([]string, 0, len(r.Requires()))
				for _, n := range r.Requires() {
					names = append(names, string(n))
				}
				fmt.Fprintf(out, "  %-14s %-20s %s\n", info.Name, info.Category, info.Title)
				fmt.Fprintf(out, "  %-14s facts: %s\n", "", strings.Join(names, ", "))
			}

			fmt.Fprintf(out, "\nFacts:\n")
			for _, spec := range facts.Specs() {
				source := strings.Join(spec.Host.Paths, ", ")
				if len(spec.Host.Command) > 0 {
					source = strings.Join(spec.Host.Command, " ")
				}
				filtered := ""
				if spec.Filterable {
					filtered = " (filtered)"
				}
				fmt.Fprintf(out, "  %-14s %s%s\n", spec.Name, source, filtered)
			}

			return nil
		},
	}
}
