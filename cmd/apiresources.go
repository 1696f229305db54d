package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/giantswarm/kubedriver/internal/catalog"
)

func newAPIResourcesCmd(g *globalOptions) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "api-resources",
		Short: "List the resource kinds the cluster serves",
		Long: `Ask the cluster for its API resources and print them merged over the
built-in catalog, the same table kinds are normalized against.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, release, err := g.scope(cmd)
			if err != nil {
				return err
			}
			defer release()

			cat, err := catalog.Fetch(ctx, catalog.Default())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tSHORTNAMES\tAPIVERSION\tNAMESPACED\tKIND")
			for _, e := range cat.Entries() {
				if cmd.Flags().Changed("api-group") && e.Group != group {
					continue
				}
				apiVersion := e.Version
				if e.Group != "" {
					apiVersion = e.Group + "/" + e.Version
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
					e.Name, strings.Join(e.ShortNames, ","), apiVersion, e.Namespaced, e.Kind)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&group, "api-group", "", "Only list resources in this API group (\"\" is the core group)")
	return cmd
}
