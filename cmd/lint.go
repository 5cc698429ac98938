package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/seedling/internal/linter"
)

func newLintCmd(a *app) *cobra.Command {
	var scope string
	c := &cobra.Command{
		Use:   "lint",
		Short: "Check the schemas of a scope for problems that would stop populate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(&a.cfg.Scope, scope)
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			diags, err := linter.Lint(cmd.Context(), store, a.cfg.Scope)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range diags {
				_, _ = fmt.Fprintln(out, d)
			}
			if linter.HasErrors(diags) {
				return fmt.Errorf("lint found problems in scope %q", a.cfg.Scope)
			}
			_, _ = fmt.Fprintf(out, "%d finding(s), no errors\n", len(diags))
			return nil
		},
	}
	c.Flags().StringVar(&scope, "scope", "", "Schema scope to check (default: everything)")
	return c
}
