package action

import (
	"encoding/json"
	"regexp"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/giantswarm/kubedriver/internal/logging"
)

// RedactedValue is the placeholder used for masked content.
const RedactedValue = "***REDACTED***"

// secretMarker detects a Secret document in JSON or YAML text, including
// YAML list items that start with the kind.
var secretMarker = regexp.MustCompile(`(?m)("kind"\s*:\s*"Secret"|^\s*(-\s+)?kind:\s*["']?Secret["']?\s*$)`)

// yamlDocumentSeparator splits a YAML stream into documents.
var yamlDocumentSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// sensitiveReferenceKeys are substrings of reference keys whose values are
// masked.
var sensitiveReferenceKeys = []string{
	"token",
	"secret",
	"password",
	"passwd",
	"credential",
}

// RedactArgs masks the value of --token arguments. The mask keeps the
// token length only.
func RedactArgs(args []string) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	copy(out, args)
	for i, arg := range out {
		switch {
		case strings.HasPrefix(arg, "--token="):
			out[i] = "--token=" + logging.SanitizeToken(strings.TrimPrefix(arg, "--token="))
		case arg == "--token" && i+1 < len(out):
			out[i+1] = logging.SanitizeToken(out[i+1])
		}
	}
	return out
}

// RedactContent masks Secret data in text produced by or fed to the client.
// JSON and single YAML documents keep every field except Secret data and
// stringData values, and come back in the format they were given in. Any
// other text that mentions a Secret is replaced wholesale.
func RedactContent(text string) string {
	if !secretMarker.MatchString(text) {
		return text
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			maskDocument(obj)
			if b, err := json.Marshal(obj); err == nil {
				return string(b)
			}
		}
		return RedactedValue
	}

	if yamlDocumentSeparator.MatchString(trimmed) {
		return RedactedValue
	}
	var obj map[string]any
	if err := yaml.Unmarshal([]byte(trimmed), &obj); err != nil || obj == nil {
		return RedactedValue
	}
	maskDocument(obj)
	b, err := yaml.Marshal(obj)
	if err != nil {
		return RedactedValue
	}
	return string(b)
}

// maskDocument masks every Secret found in v, at any depth. That covers
// List items as well as Secrets embedded in templates.
func maskDocument(v any) {
	switch t := v.(type) {
	case map[string]any:
		if kind, _ := t["kind"].(string); strings.EqualFold(kind, "Secret") {
			maskSecretData(t)
		}
		for _, child := range t {
			maskDocument(child)
		}
	case []any:
		for _, item := range t {
			maskDocument(item)
		}
	}
}

// maskSecretData masks the data and stringData fields of a Secret.
func maskSecretData(secret map[string]any) {
	for _, field := range []string{"data", "stringData"} {
		data, ok := secret[field].(map[string]any)
		if !ok {
			continue
		}
		masked := make(map[string]any, len(data))
		for key := range data {
			masked[key] = RedactedValue
		}
		secret[field] = masked
	}
}

func redactReferences(refs map[string]any) map[string]any {
	if refs == nil {
		return nil
	}
	out := make(map[string]any, len(refs))
	for k, v := range refs {
		if isSensitiveKey(k) {
			out[k] = RedactedValue
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = RedactContent(s)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveReferenceKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
