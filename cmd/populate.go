package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentic-research/seedling/internal/asset"
	"github.com/agentic-research/seedling/internal/config"
	"github.com/agentic-research/seedling/internal/populate"
)

// targetFlags are the per-run overrides shared by populate and plan.
type targetFlags struct {
	scope  string
	folder string
	asset  string
	prefix string
}

func (f *targetFlags) register(c *cobra.Command, withFolder bool) {
	c.Flags().StringVar(&f.scope, "scope", "", "Schema scope to populate (recursive)")
	c.Flags().StringVar(&f.asset, "asset", "", "Placeholder file attached to multimedia instances")
	c.Flags().StringVar(&f.prefix, "prefix", "", "Instance title prefix")
	if withFolder {
		c.Flags().StringVar(&f.folder, "folder", "", "Destination folder for created instances")
	}
}

func (f *targetFlags) apply(cfg *config.Config) {
	override(&cfg.Scope, f.scope)
	override(&cfg.Folder, f.folder)
	override(&cfg.AssetPath, f.asset)
	override(&cfg.Prefix, f.prefix)
}

func options(cfg *config.Config) (populate.Options, error) {
	opts := populate.Options{Prefix: cfg.Prefix}
	if cfg.AssetPath == "" {
		return opts, nil
	}
	fs, abs, err := hostPath(cfg.AssetPath)
	if err != nil {
		return opts, err
	}
	opts.Assets = &asset.Provider{
		FS:             fs,
		Path:           abs,
		Filename:       cfg.AssetFilename,
		MultimediaType: cfg.MultimediaType,
	}
	return opts, nil
}

func newPopulateCmd(a *app) *cobra.Command {
	var flags targetFlags
	c := &cobra.Command{
		Use:   "populate",
		Short: "Create one placeholder instance per Content and Multimedia schema in a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.apply(a.cfg)
			if err := a.cfg.RequireTarget(); err != nil {
				return err
			}
			opts, err := options(a.cfg)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			res, err := populate.New(store, opts).Resolve(cmd.Context(), a.cfg.Scope, a.cfg.Folder)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "#\tSCHEMA\tINSTANCE")
			for i, e := range res.Registry.Entries() {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, e.SchemaID, e.InstanceID)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Created %d instance(s) in %s (%d pass(es))\n", res.Registry.Len(), a.cfg.Folder, res.Passes)
			return nil
		},
	}
	flags.register(c, true)
	return c
}

func newPlanCmd(a *app) *cobra.Command {
	var flags targetFlags
	c := &cobra.Command{
		Use:   "plan",
		Short: "Show the creation order for a scope without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.apply(a.cfg)
			if err := a.cfg.RequireScope(); err != nil {
				return err
			}
			opts, err := options(a.cfg)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			res, err := populate.Plan(cmd.Context(), store, a.cfg.Scope, opts)
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), res)
		},
	}
	flags.register(c, false)
	return c
}

func printPlan(w io.Writer, res *populate.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tSCHEMA\tDEPENDS ON")
	for i, id := range res.Order {
		deps := strings.Join(res.Dependencies[id], ", ")
		if deps == "" {
			deps = "-"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, id, deps)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%d schema(s) in %d pass(es)\n", len(res.Order), res.Passes)
	return nil
}
