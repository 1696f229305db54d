package resource

import (
	"context"
	"fmt"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// RelatedLabels returns the label constraints that select objects of kind
// owned by r: pods of a workload or service, builds of a build config,
// replication controllers of a deployment config. The second result is false
// when no such relation is known.
func (r *Resource) RelatedLabels(kind string) (map[string]string, bool) {
	want := r.catalog.Normalize(kind)
	name := r.Name()

	switch own := r.QName().Kind; {
	case own == "deploymentconfig.apps.openshift.io":
		switch want {
		case "pod":
			return map[string]string{"deploymentconfig": name}, true
		case "replicationcontroller":
			return map[string]string{"openshift.io/deployment-config.name": name}, true
		}
	case own == "buildconfig.build.openshift.io":
		switch want {
		case "build.build.openshift.io":
			return map[string]string{"openshift.io/build-config.name": name}, true
		case "pod":
			return map[string]string{"openshift.io/build-config.name": name}, true
		}
	case own == "build.build.openshift.io":
		if want == "pod" {
			return map[string]string{"openshift.io/build.name": name}, true
		}
	case own == "service":
		if want == "pod" {
			return nonEmpty(r.doc.Get("spec", "selector").StringMap())
		}
	case r.hasPodSelector():
		if want == "pod" {
			return nonEmpty(r.doc.Get("spec", "selector", "matchLabels").StringMap())
		}
	}
	return nil, false
}

func (r *Resource) hasPodSelector() bool {
	switch r.QName().Kind {
	case "deployment.apps", "statefulset.apps", "daemonset.apps", "replicaset.apps", "job.batch":
		return true
	}
	return false
}

func nonEmpty(m map[string]string) (map[string]string, bool) {
	return m, len(m) > 0
}

// Process renders a template with params and returns the objects it
// produces. The objects are not created.
func (r *Resource) Process(ctx context.Context, params map[string]string) ([]*Resource, *action.Result, error) {
	res := action.NewResult("process")
	if !r.IsKind("template.template.openshift.io") {
		return nil, res, fmt.Errorf("only templates can be processed, not %s", r)
	}

	data, err := r.AsJSON()
	if err != nil {
		return nil, res, err
	}
	args := []string{"-f", "-", "-o=json"}
	for _, kv := range KeyValueArgs(stringPointers(params)) {
		args = append(args, "-p", kv)
	}

	a, err := r.invoke(ctx, res, "process", args, scope.Stdin(data))
	if err != nil {
		return nil, res, err
	}
	if err := res.FailIf(fmt.Sprintf("unable to process %s", r)); err != nil {
		return nil, res, err
	}

	list := r.DeepCopy()
	if err := list.replaceDocument(a.Out); err != nil {
		return nil, res, err
	}
	objs, err := list.Elements()
	return objs, res, err
}

func stringPointers(m map[string]string) map[string]*string {
	out := make(map[string]*string, len(m))
	for k, v := range m {
		out[k] = &v
	}
	return out
}
