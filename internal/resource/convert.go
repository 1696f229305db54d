package resource

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/giantswarm/kubedriver/internal/model"
)

// Into converts the document into obj, a pointer to a typed API struct such
// as *corev1.Pod.
func Into(r *Resource, obj any) error {
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(r.AsMap(), obj); err != nil {
		return fmt.Errorf("failed to convert %s to %T: %w", r, obj, err)
	}
	return nil
}

// As converts the document into a new T.
//
//	pod, err := resource.As[corev1.Pod](r)
func As[T any](r *Resource) (*T, error) {
	obj := new(T)
	if err := Into(r, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Unstructured returns a copy of the document as an unstructured object, for
// use with apimachinery helpers.
func (r *Resource) Unstructured() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: r.AsMap()}
}

// FromObject wraps a typed API object, e.g. a *corev1.ConfigMap built in
// code. The object must carry its apiVersion and kind.
func FromObject(ctx context.Context, obj runtime.Object, opts ...Option) (*Resource, error) {
	gvk := obj.GetObjectKind().GroupVersionKind()
	if gvk.Kind == "" {
		return nil, fmt.Errorf("object of type %T has no kind set", obj)
	}
	data, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %T: %w", obj, err)
	}
	return New(ctx, model.FromPrimitive(data), opts...)
}
