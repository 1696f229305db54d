package cmd

import (
	"github.com/spf13/cobra"

	"github.com/giantswarm/kubedriver/internal/selector"
)

func newDescribeCmd(g *globalOptions) *cobra.Command {
	var labels []string

	cmd := &cobra.Command{
		Use:   "describe (KIND... | KIND/NAME...)",
		Short: "Describe resources in human readable form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := getOptions{labels: labels}
			opts, err := o.selectorOptions()
			if err != nil {
				return err
			}
			sel, err := selector.Parse(args, opts...)
			if err != nil {
				return err
			}

			ctx, release, err := g.scope(cmd)
			if err != nil {
				return err
			}
			defer release()

			res, err := sel.Describe(ctx)
			if err != nil {
				return err
			}
			if err := res.FailIf("unable to describe " + sel.String()); err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(res.Out()))
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&labels, "selector", "l", nil, "Label constraints: k=v, k!=v, k or !k")
	return cmd
}
