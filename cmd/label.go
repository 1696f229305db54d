package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/kubedriver/internal/selector"
)

type labelOptions struct {
	getOptions
	overwrite bool
	annotate  bool
}

func newLabelCmd(g *globalOptions) *cobra.Command {
	o := &labelOptions{}

	cmd := &cobra.Command{
		Use:   "label (KIND... | KIND/NAME...) KEY=VALUE... KEY-...",
		Short: "Set or remove labels on resources",
		Long: `Set KEY=VALUE and remove KEY- labels on the selected resources. With
--annotate the same changes apply to annotations instead.`,
		Example: `  kubedriver label pod/a pod/b tier=frontend --overwrite
  kubedriver label deployment -l app=web canary-
  kubedriver label --annotate team-a:configmap/settings owner=platform`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, changes, err := splitLabelArgs(args)
			if err != nil {
				return err
			}

			opts, err := o.selectorOptions()
			if err != nil {
				return err
			}
			sel, err := selector.Parse(targets, opts...)
			if err != nil {
				return err
			}

			ctx, release, err := g.scope(cmd)
			if err != nil {
				return err
			}
			defer release()

			mutate := sel.Label
			if o.annotate {
				mutate = sel.Annotate
			}
			res, err := mutate(ctx, changes, o.overwrite)
			if err != nil {
				return err
			}
			if err := res.FailIf("unable to update " + sel.String()); err != nil {
				return err
			}
			if out := strings.TrimSpace(res.Out()); out != "" {
				writeLine(cmd, "%s", out)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&o.labels, "selector", "l", nil, "Label constraints: k=v, k!=v, k or !k")
	cmd.Flags().BoolVarP(&o.allNamespaces, "all-namespaces", "A", false, "Select across every namespace")
	cmd.Flags().BoolVar(&o.overwrite, "overwrite", false, "Replace existing values")
	cmd.Flags().BoolVar(&o.annotate, "annotate", false, "Change annotations instead of labels")

	return cmd
}

// splitLabelArgs separates what to select from KEY=VALUE and KEY- changes.
// A nil value removes the key.
func splitLabelArgs(args []string) ([]string, map[string]*string, error) {
	var targets []string
	changes := make(map[string]*string)
	for _, arg := range args {
		switch {
		case strings.Contains(arg, "="):
			key, value, _ := strings.Cut(arg, "=")
			if key == "" {
				return nil, nil, fmt.Errorf("invalid label %q", arg)
			}
			changes[key] = &value
		case strings.HasSuffix(arg, "-") && !strings.Contains(arg, "/"):
			changes[strings.TrimSuffix(arg, "-")] = nil
		default:
			targets = append(targets, arg)
		}
	}
	if len(targets) == 0 {
		return nil, nil, fmt.Errorf("nothing to label")
	}
	if len(changes) == 0 {
		return nil, nil, fmt.Errorf("no labels given")
	}
	return targets, changes, nil
}
