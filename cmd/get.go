package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/kubedriver/internal/model"
	"github.com/giantswarm/kubedriver/internal/resource"
	"github.com/giantswarm/kubedriver/internal/scope"
	"github.com/giantswarm/kubedriver/internal/selector"
)

// Output formats accepted by -o.
const (
	outputNames = "names"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// maxNamespaceFanout bounds the concurrent queries of --namespaces.
const maxNamespaceFanout = 8

type getOptions struct {
	labels        []string
	fields        []string
	allNamespaces bool
	namespaces    []string
	output        string
}

func newGetCmd(g *globalOptions) *cobra.Command {
	o := &getOptions{}

	cmd := &cobra.Command{
		Use:   "get (KIND... | KIND/NAME...)",
		Short: "List resources",
		Long: `List the resources matched by a selector.

Bare kinds select every resource of those kinds that satisfies -l and
--field. Qualified names such as pod/a or team-a:pod/b select exactly those
resources. With --namespaces the query runs once per namespace,
concurrently.`,
		Example: `  kubedriver get pod -l app=web
  kubedriver get deployment,statefulset --namespaces team-a,team-b -o yaml
  kubedriver get pod --field status.phase!=Running -A`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.allNamespaces && len(o.namespaces) > 0 {
				return fmt.Errorf("--all-namespaces and --namespaces are mutually exclusive")
			}
			switch o.output {
			case outputNames, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unsupported output format %q", o.output)
			}

			ctx, release, err := g.scope(cmd)
			if err != nil {
				return err
			}
			defer release()

			objs, err := o.run(ctx, args)
			if err != nil {
				return err
			}
			return printObjects(cmd, objs, o.output)
		},
	}

	cmd.Flags().StringSliceVarP(&o.labels, "selector", "l", nil, "Label constraints: k=v, k!=v, k or !k")
	cmd.Flags().StringSliceVar(&o.fields, "field", nil, "Field constraints: k=v or k!=v")
	cmd.Flags().BoolVarP(&o.allNamespaces, "all-namespaces", "A", false, "Select across every namespace")
	cmd.Flags().StringSliceVar(&o.namespaces, "namespaces", nil, "Run the query in each of these namespaces")
	cmd.Flags().StringVarP(&o.output, "output", "o", outputNames, "Output format: names, json or yaml")

	return cmd
}

func (o *getOptions) selectorOptions() ([]selector.Option, error) {
	var opts []selector.Option
	if len(o.labels) > 0 {
		labels, err := parseConstraints(o.labels, true)
		if err != nil {
			return nil, err
		}
		opts = append(opts, selector.Labels(labels))
	}
	if len(o.fields) > 0 {
		fields, err := parseConstraints(o.fields, false)
		if err != nil {
			return nil, err
		}
		opts = append(opts, selector.Fields(fields))
	}
	if o.allNamespaces {
		opts = append(opts, selector.AllNamespaces())
	}
	return opts, nil
}

func (o *getOptions) run(ctx context.Context, args []string) ([]*resource.Resource, error) {
	opts, err := o.selectorOptions()
	if err != nil {
		return nil, err
	}

	if len(o.namespaces) == 0 {
		sel, err := selector.Parse(args, opts...)
		if err != nil {
			return nil, err
		}
		return sel.Objects(ctx)
	}

	// Every namespace gets its own selector and child scope.
	found := make([][]*resource.Resource, len(o.namespaces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxNamespaceFanout)
	for i, ns := range o.namespaces {
		g.Go(func() error {
			nsctx, s := scope.New(gctx, scope.WithNamespace(ns))
			defer func() { _ = s.Close() }()

			sel, err := selector.Parse(args, opts...)
			if err != nil {
				return err
			}
			objs, err := sel.Objects(nsctx)
			if err != nil {
				return fmt.Errorf("namespace %s: %w", ns, err)
			}
			found[i] = objs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var objs []*resource.Resource
	for _, batch := range found {
		objs = append(objs, batch...)
	}
	return objs, nil
}

// parseConstraints turns k=v, k!=v, k and !k into the map form selectors
// take. Bare keys are only meaningful for labels.
func parseConstraints(items []string, allowExists bool) (map[string]any, error) {
	constraints := make(map[string]any, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if key, value, ok := strings.Cut(item, "!="); ok {
			constraints["!"+strings.TrimSpace(key)] = strings.TrimSpace(value)
			continue
		}
		if key, value, ok := strings.Cut(item, "="); ok {
			constraints[strings.TrimSpace(key)] = strings.TrimPrefix(strings.TrimSpace(value), "=")
			continue
		}
		if !allowExists {
			return nil, fmt.Errorf("invalid constraint %q: expected key=value or key!=value", item)
		}
		constraints[item] = nil
	}
	return constraints, nil
}

func printObjects(cmd *cobra.Command, objs []*resource.Resource, output string) error {
	if output == outputNames {
		for _, obj := range objs {
			writeLine(cmd, "%s", obj)
		}
		return nil
	}

	items := make([]any, len(objs))
	for i, obj := range objs {
		items[i] = obj.AsMap()
	}
	list := model.FromPrimitive(map[string]any{"apiVersion": "v1", "kind": "List", "items": items})

	var data []byte
	var err error
	if output == outputYAML {
		data, err = list.YAML()
	} else {
		data, err = list.JSON()
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}
