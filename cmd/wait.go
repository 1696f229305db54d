package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/utils/ptr"

	"github.com/giantswarm/kubedriver/internal/model"
	"github.com/giantswarm/kubedriver/internal/resource"
	"github.com/giantswarm/kubedriver/internal/selector"
)

type waitOptions struct {
	getOptions
	condition string
	failure   string
	minExist  int
	tolerate  int
}

func newWaitCmd(g *globalOptions) *cobra.Command {
	o := &waitOptions{}

	cmd := &cobra.Command{
		Use:   "wait (KIND... | KIND/NAME...) --for PATH=VALUE",
		Short: "Wait until every selected resource matches a condition",
		Long: `Poll the selected resources until at least --min of them exist and all of
them match --for. With --min 0 an empty selection satisfies the wait.

PATH is a dotted path into the resource. VALUE is read as JSON when it is
valid JSON, as a YAML flow collection when it starts with { or [, and as a
plain string otherwise, so Running, yes and True stay strings. Maps and
lists match as subsets.

The wait gives up when more than --tolerate resources match --fail, and
when --timeout expires.`,
		Example: `  kubedriver wait pod -l app=web --for status.phase=Running --min 3 --timeout 5m
  kubedriver wait build/app-1 --for status.phase=Complete --fail status.phase=Failed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			success, err := parseCondition(o.condition)
			if err != nil {
				return err
			}
			var failure selector.Predicate
			if o.failure != "" {
				if failure, err = parseCondition(o.failure); err != nil {
					return err
				}
			}

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

			out, err := sel.UntilAll(ctx, selector.UntilAllOptions{
				MinExist:         ptr.To(o.minExist),
				Success:          success,
				TolerateFailures: o.tolerate,
				Failure:          failure,
			})
			if err != nil {
				return err
			}
			if !out.Satisfied {
				names := make([]string, len(out.Failures))
				for i, obj := range out.Failures {
					names[i] = obj.String()
				}
				return fmt.Errorf("condition failed after %d iterations: %s", out.Iterations, strings.Join(names, ", "))
			}

			for _, obj := range out.Objects {
				writeLine(cmd, "%s condition met", obj)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&o.labels, "selector", "l", nil, "Label constraints: k=v, k!=v, k or !k")
	cmd.Flags().StringSliceVar(&o.fields, "field", nil, "Field constraints: k=v or k!=v")
	cmd.Flags().BoolVarP(&o.allNamespaces, "all-namespaces", "A", false, "Select across every namespace")
	cmd.Flags().StringVar(&o.condition, "for", "", "Condition every resource must match, PATH=VALUE")
	cmd.Flags().StringVar(&o.failure, "fail", "", "Condition marking a resource as failed, PATH=VALUE")
	cmd.Flags().IntVar(&o.minExist, "min", 1, "Number of resources that must exist, 0 accepts an empty selection")
	cmd.Flags().IntVar(&o.tolerate, "tolerate", 0, "Number of failed resources to tolerate")
	_ = cmd.MarkFlagRequired("for")

	return cmd
}

// parseCondition turns PATH=VALUE into a predicate matching VALUE as a subset
// of the node at PATH.
func parseCondition(condition string) (selector.Predicate, error) {
	path, raw, ok := strings.Cut(condition, "=")
	path = strings.TrimSpace(path)
	raw = strings.TrimSpace(raw)
	if !ok || path == "" || raw == "" {
		return nil, fmt.Errorf("invalid condition %q: expected PATH=VALUE with a non-empty VALUE", condition)
	}
	expected, err := conditionValue(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid value in condition %q: %w", condition, err)
	}

	return func(r *resource.Resource) bool {
		return r.Model().GetPath(path).CanMatch(expected)
	}, nil
}

// conditionValue decodes the VALUE of a condition. Bare words are strings
// rather than YAML 1.1 booleans.
func conditionValue(raw string) (*model.Value, error) {
	if v, err := model.DecodeJSON([]byte(raw)); err == nil {
		return v, nil
	}
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return model.DecodeYAML([]byte(raw))
	}
	return model.FromPrimitive(raw), nil
}
