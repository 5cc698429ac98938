package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInstancesCmd(a *app) *cobra.Command {
	var folder string
	var showContent bool
	c := &cobra.Command{
		Use:   "instances",
		Short: "List created instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list, err := store.ListInstances(cmd.Context(), folder)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showContent {
				for _, inst := range list {
					_, _ = fmt.Fprintf(out, "== %s (%s)\n", inst.Title, inst.ID)
					if inst.Content != "" {
						_, _ = fmt.Fprintln(out, inst.Content)
					}
					if inst.Metadata != "" {
						_, _ = fmt.Fprintln(out, inst.Metadata)
					}
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTITLE\tSCHEMA\tKIND\tFOLDER\tBINARY")
			for _, inst := range list {
				binary := "-"
				if inst.BinaryFilename != "" {
					binary = fmt.Sprintf("%s (%s, %d bytes)", inst.BinaryFilename, inst.MultimediaType, inst.BinarySize)
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", inst.ID, inst.Title, inst.SchemaID, inst.Kind, inst.Folder, binary)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&folder, "folder", "", "Only list instances in this folder")
	c.Flags().BoolVar(&showContent, "content", false, "Print the XML payloads")
	return c
}
