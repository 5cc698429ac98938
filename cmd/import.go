package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/seedling/internal/ingest"
)

func newImportCmd(a *app) *cobra.Command {
	var selector string
	c := &cobra.Command{
		Use:   "import [catalog...]",
		Short: "Load schema catalogs (JSON or YAML) into the repository",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for _, path := range args {
				fs, abs, err := hostPath(path)
				if err != nil {
					return err
				}
				im := ingest.NewImporter(fs, store)
				if selector != "" {
					im.Selector = selector
				}
				n, err := im.Import(cmd.Context(), abs)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d schema(s) from %s\n", n, path)
			}
			return nil
		},
	}
	c.Flags().StringVar(&selector, "selector", ingest.DefaultSelector, "JSONPath selecting schema entries")
	return c
}
