package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

var headerField = regexp.MustCompile(`\S+`)

type column struct {
	name  string
	start int
}

// ParseAPIResources parses the table printed by `api-resources`, with or
// without -o=wide. Both the APIVERSION column of current clients and the
// APIGROUP column of older ones are understood.
func ParseAPIResources(text string) ([]Entry, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var cols []column
	var entries []Entry
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if cols == nil {
			if !strings.HasPrefix(line, "NAME") {
				continue
			}
			for _, loc := range headerField.FindAllStringIndex(line, -1) {
				cols = append(cols, column{name: line[loc[0]:loc[1]], start: loc[0]})
			}
			continue
		}

		row := make(map[string]string, len(cols))
		for i, col := range cols {
			row[col.name] = cell(line, cols, i)
		}

		e := Entry{
			Name:       row["NAME"],
			ShortNames: splitList(row["SHORTNAMES"]),
			Kind:       row["KIND"],
			Namespaced: row["NAMESPACED"] == "true",
			Verbs:      splitList(row["VERBS"]),
		}
		if e.Name == "" || e.Kind == "" {
			return nil, fmt.Errorf("malformed api-resources row: %q", line)
		}
		if apiVersion, ok := row["APIVERSION"]; ok {
			gv, err := schema.ParseGroupVersion(apiVersion)
			if err != nil {
				return nil, fmt.Errorf("malformed api version in row %q: %w", line, err)
			}
			e.Group, e.Version = gv.Group, gv.Version
		} else {
			e.Group = row["APIGROUP"]
		}
		entries = append(entries, e)
	}

	if cols == nil {
		return nil, fmt.Errorf("unrecognized api-resources output")
	}
	return entries, nil
}

func cell(line string, cols []column, i int) string {
	start := cols[i].start
	if start >= len(line) {
		return ""
	}
	end := len(line)
	if i+1 < len(cols) && cols[i+1].start < end {
		end = cols[i+1].start
	}
	return strings.TrimSpace(line[start:end])
}

func splitList(s string) []string {
	s = strings.Trim(s, "[]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
