package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanMatch(t *testing.T) {
	doc := MustDecode(`{
	  "kind": "Deployment",
	  "metadata": {"name": "api", "labels": {"app": "api", "tier": "backend"}},
	  "spec": {"replicas": 2, "paused": false},
	  "status": {
	    "readyReplicas": "2",
	    "conditions": [
	      {"type": "Available", "status": "True"},
	      {"type": "Progressing", "status": "True", "reason": "NewReplicaSetAvailable"}
	    ]
	  },
	  "tags": ["a", "b", "c"]
	}`)

	tests := []struct {
		name    string
		pattern any
		opts    []MatchOption
		want    bool
	}{
		{
			name:    "empty pattern",
			pattern: map[string]any{},
			want:    true,
		},
		{
			name:    "nested subset",
			pattern: map[string]any{"metadata": map[string]any{"labels": map[string]any{"app": "api"}}},
			want:    true,
		},
		{
			name:    "typed map pattern",
			pattern: map[string]any{"metadata": map[string]any{"labels": map[string]string{"tier": "backend"}}},
			want:    true,
		},
		{
			name:    "missing key",
			pattern: map[string]any{"metadata": map[string]any{"namespace": "default"}},
			want:    false,
		},
		{
			name:    "wrong leaf",
			pattern: map[string]any{"metadata": map[string]any{"labels": map[string]any{"app": "web"}}},
			want:    false,
		},
		{
			name:    "string number drift",
			pattern: map[string]any{"status": map[string]any{"readyReplicas": 2}},
			want:    true,
		},
		{
			name:    "number vs string pattern",
			pattern: map[string]any{"spec": map[string]any{"replicas": "2"}},
			want:    true,
		},
		{
			name:    "float vs int",
			pattern: map[string]any{"spec": map[string]any{"replicas": 2.0}},
			want:    true,
		},
		{
			name:    "bool drift",
			pattern: map[string]any{"spec": map[string]any{"paused": "false"}},
			want:    true,
		},
		{
			name:    "condition status bool vs True",
			pattern: map[string]any{"status": map[string]any{"conditions": []any{map[string]any{"type": "Available", "status": true}}}},
			want:    true,
		},
		{
			name: "list any element",
			pattern: map[string]any{"status": map[string]any{"conditions": []any{
				map[string]any{"reason": "NewReplicaSetAvailable"},
			}}},
			want: true,
		},
		{
			name: "list elements matched independently",
			pattern: map[string]any{"status": map[string]any{"conditions": []any{
				map[string]any{"type": "Available"},
				map[string]any{"type": "Progressing"},
			}}},
			want: true,
		},
		{
			name: "list element unsatisfied",
			pattern: map[string]any{"status": map[string]any{"conditions": []any{
				map[string]any{"type": "Degraded"},
			}}},
			want: false,
		},
		{
			name:    "scalar list subset out of order",
			pattern: map[string]any{"tags": []string{"c", "a"}},
			want:    true,
		},
		{
			name:    "case sensitive by default",
			pattern: map[string]any{"kind": "deployment"},
			want:    false,
		},
		{
			name:    "case insensitive option",
			pattern: map[string]any{"kind": "deployment"},
			opts:    []MatchOption{CaseInsensitive()},
			want:    true,
		},
		{
			name:    "scalar against container",
			pattern: map[string]any{"metadata": "api"},
			want:    false,
		},
		{
			name:    "value pattern",
			pattern: MustDecode(`{"metadata": {"name": "api"}}`),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doc.CanMatch(tt.pattern, tt.opts...))
		})
	}
}

func TestCanMatchSubsetLaw(t *testing.T) {
	doc := MustDecode(`{"a": {"b": 1, "c": ["x", "y"]}, "d": "e"}`)
	pattern := map[string]any{"a": map[string]any{"b": 1, "c": []any{"y"}}}

	assert.True(t, doc.CanMatch(pattern))

	// Changing a referenced leaf breaks the match.
	assert.NoError(t, doc.Get("a").Set("b", 2))
	assert.False(t, doc.CanMatch(pattern))

	// Changing an unreferenced leaf does not.
	assert.NoError(t, doc.Get("a").Set("b", 1))
	assert.NoError(t, doc.Set("d", "changed"))
	assert.True(t, doc.CanMatch(pattern))
}

func TestCanMatchAbsentAndNull(t *testing.T) {
	assert.False(t, Absent().CanMatch(map[string]any{}))
	assert.False(t, MustDecode(`{"a":1}`).CanMatch(Absent()))
	assert.True(t, MustDecode(`{"a":null}`).CanMatch(map[string]any{"a": nil}))
	assert.False(t, MustDecode(`{"a":""}`).CanMatch(map[string]any{"a": nil}))
}
