package resource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/ptr"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/model"
	"github.com/giantswarm/kubedriver/internal/scope"
	"github.com/giantswarm/kubedriver/internal/scope/scopetest"
)

const podDoc = `{
  "apiVersion": "v1",
  "kind": "Pod",
  "metadata": {"name": "a", "labels": {"app": "web"}},
  "spec": {
    "initContainers": [{"name": "init", "image": "busybox"}],
    "containers": [{"name": "app", "image": "nginx"}, {"name": "sidecar", "image": "envoy"}]
  }
}`

func newPod(ctx context.Context, t *testing.T) *Resource {
	t.Helper()
	r, err := Decode(ctx, []byte(podDoc))
	require.NoError(t, err)
	return r
}

func TestNewForcesNamespace(t *testing.T) {
	exec := scopetest.NewExecutor()

	dir := t.TempDir()
	kubeconfig := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(kubeconfig, []byte(`apiVersion: v1
kind: Config
clusters:
- name: c
  cluster: {server: "https://api.example.com:6443"}
contexts:
- name: ctx
  context: {cluster: c, namespace: from-kubeconfig}
current-context: ctx
`), 0o600))

	tests := []struct {
		name string
		opts []scope.Option
		doc  string
		want string
	}{
		{
			name: "document namespace wins",
			opts: []scope.Option{scope.WithNamespace("team-a")},
			doc:  `{"kind": "Pod", "apiVersion": "v1", "metadata": {"name": "a", "namespace": "doc-ns"}}`,
			want: "doc-ns",
		},
		{
			name: "scope namespace",
			opts: []scope.Option{scope.WithNamespace("team-a")},
			doc:  `{"kind": "Pod", "apiVersion": "v1", "metadata": {"name": "a"}}`,
			want: "team-a",
		},
		{
			name: "kubeconfig namespace",
			opts: []scope.Option{scope.WithKubeconfig(kubeconfig)},
			doc:  `{"kind": "Pod", "apiVersion": "v1", "metadata": {"name": "a"}}`,
			want: "from-kubeconfig",
		},
		{
			name: "cluster scoped kind",
			opts: []scope.Option{scope.WithNamespace("team-a")},
			doc:  `{"kind": "Namespace", "apiVersion": "v1", "metadata": {"name": "team-b"}}`,
			want: "",
		},
		{
			name: "unknown kind takes scope namespace",
			opts: []scope.Option{scope.WithNamespace("team-a")},
			doc:  `{"kind": "Widget", "apiVersion": "example.com/v1", "metadata": {"name": "w"}}`,
			want: "team-a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := scopetest.Context(t, exec, tt.opts...)
			r, err := Decode(ctx, []byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Namespace())
			if tt.want != "" {
				assert.Equal(t, tt.want, r.Model().Get("metadata", "namespace").Str(""))
			}
		})
	}
}

func TestNewRejectsNonMap(t *testing.T) {
	ctx := scopetest.Context(t, scopetest.NewExecutor())
	_, err := Decode(ctx, []byte(`[1, 2]`))
	assert.Error(t, err)
	_, err = New(ctx, model.Absent())
	assert.Error(t, err)
}

func TestAccessors(t *testing.T) {
	ctx := scopetest.Context(t, scopetest.NewExecutor(), scope.WithNamespace("team-a"))
	r, err := FromMap(ctx, map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]any{
			"name":        "web",
			"uid":         "1234",
			"labels":      map[string]any{"app": "web"},
			"annotations": map[string]any{"owner": "team-a"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Deployment", r.Kind())
	assert.Equal(t, "apps", r.Group())
	assert.Equal(t, "web", r.Name())
	assert.Equal(t, "1234", r.UID())
	assert.Equal(t, "team-a:deployment.apps/web", r.QName().String())
	assert.Equal(t, "team-a:deployment.apps/web", r.String())
	assert.True(t, r.IsKind("deploy"))
	assert.True(t, r.IsKind("Deployment"))
	assert.False(t, r.IsKind("pod"))
	assert.Equal(t, map[string]string{"app": "web"}, r.Labels())
	assert.Equal(t, "team-a", r.AnnotationValue("owner"))
	assert.Empty(t, r.LabelValue("missing"))
	assert.True(t, r.CanMatch(map[string]any{"metadata": map[string]any{"labels": map[string]any{"app": "web"}}}))

	yamlOut, err := r.AsYAML()
	require.NoError(t, err)
	assert.Contains(t, string(yamlOut), "kind: Deployment")

	c := r.DeepCopy()
	require.NoError(t, c.Model().Get("metadata").Set("name", "other"))
	assert.Equal(t, "web", r.Name())
}

func TestElements(t *testing.T) {
	ctx := scopetest.Context(t, scopetest.NewExecutor(), scope.WithNamespace("team-a"))
	list, err := Decode(ctx, []byte(`{"kind": "List", "apiVersion": "v1", "items": [
		{"kind": "Pod", "apiVersion": "v1", "metadata": {"name": "a"}},
		{"kind": "Namespace", "apiVersion": "v1", "metadata": {"name": "b"}}
	]}`))
	require.NoError(t, err)
	require.True(t, list.IsList())

	objs, err := list.Elements()
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "team-a:pod/a", objs[0].String())
	assert.Equal(t, "namespace/b", objs[1].String())
	assert.Equal(t, list.Target(), objs[0].Target())
}

func TestIsEmptyList(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{name: "null items", doc: `{"kind": "List", "apiVersion": "v1", "items": null}`, want: true},
		{name: "missing items", doc: `{"kind": "PodList", "apiVersion": "v1", "metadata": {}}`, want: true},
		{name: "items present", doc: `{"kind": "List", "apiVersion": "v1", "items": []}`},
		{name: "named object with a List suffix", doc: `{"kind": "AccessList", "apiVersion": "example.com/v1", "metadata": {"name": "a"}}`},
		{name: "plain object", doc: `{"kind": "Pod", "apiVersion": "v1", "metadata": {"name": "a"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmptyList(model.MustDecode(tt.doc)))
		})
	}
}

func TestLabelEncoding(t *testing.T) {
	tests := []struct {
		name      string
		labels    map[string]*string
		overwrite bool
		want      string
		wantLabel map[string]string
	}{
		{
			name:      "remove missing key",
			labels:    map[string]*string{"k": nil},
			overwrite: true,
			want:      "label pod/a k- --overwrite",
			wantLabel: map[string]string{"app": "web"},
		},
		{
			name:      "set with overwrite",
			labels:    map[string]*string{"k": ptr.To("v")},
			overwrite: true,
			want:      "label pod/a k=v --overwrite",
			wantLabel: map[string]string{"app": "web", "k": "v"},
		},
		{
			name:      "set without overwrite",
			labels:    map[string]*string{"k": ptr.To("v")},
			overwrite: false,
			want:      "label pod/a k=v",
			wantLabel: map[string]string{"app": "web", "k": "v"},
		},
		{
			name:      "mixed keys are sorted",
			labels:    map[string]*string{"z": ptr.To("1"), "app": nil},
			overwrite: true,
			want:      "label pod/a app- z=1 --overwrite",
			wantLabel: map[string]string{"z": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := scopetest.NewExecutor().On("label", scope.Response{Stdout: "pod/a labeled"})
			ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
			r := newPod(ctx, t)

			res, err := r.Label(ctx, tt.labels, tt.overwrite)
			require.NoError(t, action.Check(res, err, "labeling"))
			assert.Equal(t, []string{tt.want}, exec.Lines())
			assert.Equal(t, tt.wantLabel, r.Labels())
		})
	}
}

func TestAnnotateFailureKeepsDocument(t *testing.T) {
	exec := scopetest.NewExecutor().On("annotate", scope.Response{Status: 1, Stderr: "Error from server (NotFound)"})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
	r := newPod(ctx, t)

	res, err := r.Annotate(ctx, map[string]*string{"note": ptr.To("x")}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Status())
	assert.Empty(t, r.Annotations())
	assert.ErrorIs(t, res.FailIf("annotating"), action.ErrOperationFailed)
}

func TestOperationsUseSnapshotTarget(t *testing.T) {
	exec := scopetest.NewExecutor().On("describe", scope.Response{Stdout: "Name: a"})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"), scope.WithServer("https://one:6443"))
	r := newPod(ctx, t)

	other, s := scope.New(ctx, scope.WithServer("https://two:6443"), scope.WithNamespace("team-b"))
	defer s.Close()

	res, err := r.Describe(other)
	require.NoError(t, err)
	assert.Equal(t, "Name: a", res.Out())

	requests := exec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, []string{"oc", "--server=https://one:6443", "--namespace=team-a", "describe", "pod/a"}, requests[0].Argv)
}

func TestClusterScopedOperationsOmitNamespace(t *testing.T) {
	exec := scopetest.NewExecutor().On("delete", scope.Response{Stdout: "namespace/b deleted"})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
	r, err := Decode(ctx, []byte(`{"kind": "Namespace", "apiVersion": "v1", "metadata": {"name": "b"}}`))
	require.NoError(t, err)

	_, err = r.Delete(ctx, true, "--wait=false")
	require.NoError(t, err)
	requests := exec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, []string{"oc", "delete", "namespace/b", "-o=name", "--ignore-not-found", "--wait=false"}, requests[0].Argv)
}

func TestSubmitVerbs(t *testing.T) {
	exec := scopetest.NewExecutor().
		On("apply", scope.Response{Stdout: "pod/a configured"}).
		On("create", scope.Response{Stdout: "pod/a created"}).
		On("replace", scope.Response{Stdout: "pod/a replaced"})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
	r := newPod(ctx, t)

	_, err := r.Apply(ctx)
	require.NoError(t, err)
	_, err = r.Create(ctx)
	require.NoError(t, err)
	res, err := r.Replace(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "pod/a replaced", res.Out())

	assert.Equal(t, []string{
		"apply -f - -o=name",
		"create -f - -o=name",
		"replace -f - -o=name --force",
	}, exec.Lines())

	sent, err := model.Decode(exec.Requests()[0].Stdin)
	require.NoError(t, err)
	assert.Equal(t, "team-a", sent.Get("metadata", "namespace").Str(""))
	assert.Equal(t, "a", sent.Get("metadata", "name").Str(""))
}

func TestPatch(t *testing.T) {
	patched := `{"apiVersion": "v1", "kind": "Pod", "metadata": {"name": "a", "namespace": "team-a", "labels": {"app": "api"}}}`
	exec := scopetest.NewExecutor().On("patch", scope.Response{Stdout: patched})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
	r := newPod(ctx, t)

	res, err := r.Patch(ctx, map[string]any{"metadata": map[string]any{"labels": map[string]any{"app": "api"}}}, types.MergePatchType)
	require.NoError(t, action.Check(res, err, "patching"))
	assert.Equal(t, []string{`patch pod/a --type=merge -p {"metadata":{"labels":{"app":"api"}}} -o=json`}, exec.Lines())
	assert.Equal(t, "api", r.LabelValue("app"))

	_, err = r.Patch(ctx, nil, types.ApplyPatchType)
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	live := `{"apiVersion": "v1", "kind": "Pod", "metadata": {"name": "a", "namespace": "team-a", "resourceVersion": "42"}}`
	exec := scopetest.NewExecutor().On("get pod/a -o=json", scope.Response{Stdout: live})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
	r := newPod(ctx, t)

	_, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", r.ResourceVersion())

	missing := scopetest.NewExecutor().On("get", scope.Response{Status: 1, Stderr: `pods "a" not found`})
	ctx = scopetest.Context(t, missing, scope.WithNamespace("team-a"))
	r = newPod(ctx, t)

	_, err = r.Refresh(ctx)
	var opErr *action.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Contains(t, err.Error(), "not found")
}

func TestExists(t *testing.T) {
	tests := []struct {
		name    string
		resp    scope.Response
		want    bool
		wantErr bool
	}{
		{name: "present", resp: scope.Response{Stdout: "pod/a\n"}, want: true},
		{name: "absent", resp: scope.Response{}, want: false},
		{name: "forbidden", resp: scope.Response{Status: 1, Stderr: "Forbidden"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := scopetest.NewExecutor().On("get pod/a -o=name --ignore-not-found", tt.resp)
			ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

			exists, _, err := newPod(ctx, t).Exists(ctx)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestModifyAndApply(t *testing.T) {
	setReplicas := func(r *Resource) (bool, error) {
		spec, err := r.Model().Ensure("spec")
		if err != nil {
			return false, err
		}
		return true, spec.Set("priority", 10)
	}
	live := `{"apiVersion": "v1", "kind": "Pod", "metadata": {"name": "a", "resourceVersion": "7"}}`

	t.Run("retries after refresh", func(t *testing.T) {
		applies := 0
		exec := scopetest.NewExecutor().
			OnFunc("apply", func(context.Context, scope.Request) (scope.Response, error) {
				applies++
				if applies == 1 {
					return scope.Response{Status: 1, Stderr: "the object has been modified"}, nil
				}
				return scope.Response{Stdout: "pod/a configured"}, nil
			}).
			On("get pod/a -o=json", scope.Response{Stdout: live})
		ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
		r := newPod(ctx, t)

		res, err := r.ModifyAndApply(ctx, setReplicas, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Status(), "failed attempts that were retried do not count")
		assert.Equal(t, []string{"apply -f - -o=name", "get pod/a -o=json", "apply -f - -o=name"}, exec.Lines())

		actions := res.Actions()
		require.Len(t, actions, 3)
		assert.False(t, actions[0].LastAttempt)
		assert.True(t, actions[2].LastAttempt)
		assert.Equal(t, "7", r.ResourceVersion())
		assert.Equal(t, int64(10), r.Model().Get("spec", "priority").Int(0))
	})

	t.Run("budget exhausted", func(t *testing.T) {
		exec := scopetest.NewExecutor().
			On("apply", scope.Response{Status: 1, Stderr: "conflict"}).
			On("get pod/a -o=json", scope.Response{Stdout: live})
		ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

		res, err := newPod(ctx, t).ModifyAndApply(ctx, setReplicas, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Status())
		assert.Len(t, exec.Lines(), 3)
	})

	t.Run("declined change", func(t *testing.T) {
		exec := scopetest.NewExecutor()
		ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

		res, err := newPod(ctx, t).ModifyAndApply(ctx, func(*Resource) (bool, error) { return false, nil }, 3)
		require.NoError(t, err)
		assert.Zero(t, res.Len())
		assert.Empty(t, exec.Lines())
	})

	t.Run("modifier error", func(t *testing.T) {
		ctx := scopetest.Context(t, scopetest.NewExecutor(), scope.WithNamespace("team-a"))
		boom := errors.New("boom")

		_, err := newPod(ctx, t).ModifyAndApply(ctx, func(*Resource) (bool, error) { return false, boom }, 3)
		assert.ErrorIs(t, err, boom)
	})
}

func TestModifyAndApplyTracesRetries(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	applies := 0
	exec := scopetest.NewExecutor().
		OnFunc("apply", func(context.Context, scope.Request) (scope.Response, error) {
			applies++
			if applies < 3 {
				return scope.Response{Status: 1, Stderr: "conflict"}, nil
			}
			return scope.Response{Stdout: "pod/a configured"}, nil
		}).
		On("get pod/a -o=json", scope.Response{Stdout: `{"apiVersion": "v1", "kind": "Pod", "metadata": {"name": "a"}}`})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	_, err := newPod(ctx, t).ModifyAndApply(ctx, func(r *Resource) (bool, error) {
		return true, r.Model().Set("data", "x")
	}, 5)
	require.NoError(t, err)

	var found bool
	for _, span := range exporter.GetSpans() {
		if span.Name != "resource.modify_and_apply" {
			continue
		}
		found = true
		require.Len(t, span.Events, 2)
		for i, ev := range span.Events {
			assert.Equal(t, "retry", ev.Name)
			attrs := map[string]int64{}
			for _, kv := range ev.Attributes {
				attrs[string(kv.Key)] = kv.Value.AsInt64()
			}
			assert.Equal(t, int64(i+1), attrs["attempt"])
			assert.Equal(t, int64(1), attrs["exit_status"])
		}
	}
	assert.True(t, found, "modify_and_apply span recorded")
}

func TestLogs(t *testing.T) {
	exec := scopetest.NewExecutor().
		On("logs pod/a -c init", scope.Response{Stdout: "init done\n"}).
		On("logs pod/a -c app", scope.Response{Stdout: "GET /\n"}).
		On("logs pod/a -c sidecar", scope.Response{Status: 1, Stderr: "container not ready"})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
	r := newPod(ctx, t)

	logs, res, err := r.Logs(ctx, LogOptions{TailLines: 10})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"init":    "init done\n",
		"app":     "GET /\n",
		"sidecar": "container not ready",
	}, logs)
	assert.Equal(t, 1, res.Status())
	assert.Equal(t, "logs pod/a -c init --tail=10", exec.Lines()[0])

	deployment, err := FromMap(ctx, map[string]any{"kind": "Deployment", "apiVersion": "apps/v1", "metadata": map[string]any{"name": "web"}})
	require.NoError(t, err)
	_, _, err = deployment.Logs(ctx, LogOptions{})
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	exec := scopetest.NewExecutor().On("exec", scope.Response{Stdout: "hello"})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))
	r := newPod(ctx, t)

	res, err := r.Execute(ctx, []string{"cat"}, ExecOptions{Container: "app", Stdin: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Out())
	assert.Equal(t, []string{"exec pod/a -c app -i -- cat"}, exec.Lines())
	assert.Equal(t, []byte("hello"), exec.Requests()[0].Stdin)

	_, err = r.Execute(ctx, nil, ExecOptions{})
	assert.Error(t, err)
}

func TestTypedConversion(t *testing.T) {
	ctx := scopetest.Context(t, scopetest.NewExecutor(), scope.WithNamespace("team-a"))
	r := newPod(ctx, t)

	pod, err := As[corev1.Pod](r)
	require.NoError(t, err)
	assert.Equal(t, "a", pod.Name)
	assert.Equal(t, "team-a", pod.Namespace)
	require.Len(t, pod.Spec.Containers, 2)
	assert.Equal(t, "nginx", pod.Spec.Containers[0].Image)
	assert.Equal(t, []string{"init", "app", "sidecar"}, r.ContainerNames())

	u := r.Unstructured()
	assert.Equal(t, "Pod", u.GetKind())
	assert.Equal(t, map[string]string{"app": "web"}, u.GetLabels())

	cm := &corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{Name: "settings"},
		Data:       map[string]string{"mode": "fast"},
	}
	fromObj, err := FromObject(ctx, cm)
	require.NoError(t, err)
	assert.Equal(t, "team-a:configmap/settings", fromObj.String())
	assert.Equal(t, "fast", fromObj.Model().Get("data", "mode").Str(""))

	_, err = FromObject(ctx, &corev1.ConfigMap{})
	assert.Error(t, err)
}

func TestProcess(t *testing.T) {
	processed := `{"kind": "List", "apiVersion": "v1", "items": [
		{"kind": "Service", "apiVersion": "v1", "metadata": {"name": "web"}},
		{"kind": "DeploymentConfig", "apiVersion": "apps.openshift.io/v1", "metadata": {"name": "web"}}
	]}`
	exec := scopetest.NewExecutor().On("process", scope.Response{Stdout: processed})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	tmpl, err := Decode(ctx, []byte(`{"kind": "Template", "apiVersion": "template.openshift.io/v1", "metadata": {"name": "web"}, "objects": []}`))
	require.NoError(t, err)

	objs, _, err := tmpl.Process(ctx, map[string]string{"NAME": "web", "REPLICAS": "2"})
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "team-a:service/web", objs[0].String())
	assert.Equal(t, "team-a:deploymentconfig.apps.openshift.io/web", objs[1].String())
	assert.Equal(t, []string{"process -f - -o=json -p NAME=web -p REPLICAS=2"}, exec.Lines())

	_, _, err = newPod(ctx, t).Process(ctx, nil)
	assert.Error(t, err)
}

func TestRelatedLabels(t *testing.T) {
	ctx := scopetest.Context(t, scopetest.NewExecutor(), scope.WithNamespace("team-a"))
	decode := func(doc string) *Resource {
		r, err := Decode(ctx, []byte(doc))
		require.NoError(t, err)
		return r
	}

	tests := []struct {
		name   string
		doc    string
		kind   string
		want   map[string]string
		wantOK bool
	}{
		{
			name:   "deployment pods",
			doc:    `{"kind": "Deployment", "apiVersion": "apps/v1", "metadata": {"name": "web"}, "spec": {"selector": {"matchLabels": {"app": "web"}}}}`,
			kind:   "pods",
			want:   map[string]string{"app": "web"},
			wantOK: true,
		},
		{
			name:   "service pods",
			doc:    `{"kind": "Service", "apiVersion": "v1", "metadata": {"name": "web"}, "spec": {"selector": {"app": "web"}}}`,
			kind:   "po",
			want:   map[string]string{"app": "web"},
			wantOK: true,
		},
		{
			name:   "deployment config replication controllers",
			doc:    `{"kind": "DeploymentConfig", "apiVersion": "apps.openshift.io/v1", "metadata": {"name": "web"}}`,
			kind:   "rc",
			want:   map[string]string{"openshift.io/deployment-config.name": "web"},
			wantOK: true,
		},
		{
			name:   "build config builds",
			doc:    `{"kind": "BuildConfig", "apiVersion": "build.openshift.io/v1", "metadata": {"name": "app"}}`,
			kind:   "build",
			want:   map[string]string{"openshift.io/build-config.name": "app"},
			wantOK: true,
		},
		{
			name: "service without selector",
			doc:  `{"kind": "Service", "apiVersion": "v1", "metadata": {"name": "ext"}, "spec": {}}`,
			kind: "pod",
		},
		{
			name: "unrelated",
			doc:  `{"kind": "ConfigMap", "apiVersion": "v1", "metadata": {"name": "c"}}`,
			kind: "pod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decode(tt.doc).RelatedLabels(tt.kind)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
