package ssh

import (
	"regexp"
	"strings"
)

var safeWord = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// ShellEscape quotes s for a POSIX shell. Words made only of safe characters
// are returned unchanged.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if safeWord.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// JoinArgs escapes each argument and joins them into one command line.
func JoinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = ShellEscape(a)
	}
	return strings.Join(quoted, " ")
}
