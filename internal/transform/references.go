package transform

import (
	"regexp"
	"strings"
)

// NamespaceSeparator joins a reference prefix to the original id.
const NamespaceSeparator = "--"

var (
	refUsagePattern      = regexp.MustCompile(`\]\[([^\]]+)\]`)
	footnoteUsagePattern = regexp.MustCompile(`\[\^([^\]]+)\]`)
	refDefinitionPattern = regexp.MustCompile(`^\[(\^)?(.+)\]:\s(.+)$`)
)

// NamespaceReferences prefixes reference-link ids, footnote ids and their
// definitions with prefix so that files concatenated into one document do
// not share reference names. Lines inside fenced blocks are untouched.
//
// Each line gets exactly one rewrite, tried in order: reference usages
// ("][id]"), footnote usages ("[^id]"), then definitions ("[id]: link").
// Ids that already carry the prefix are left alone, so "p--x" and "x"
// both become "p--x".
func NamespaceReferences(text, prefix string) string {
	return foldLines(text, func(line string, state FenceState, toggle bool) (string, bool) {
		if state == InFence && !toggle {
			return line, true
		}
		return namespaceLine(line, prefix), true
	})
}

func namespaceLine(line, prefix string) string {
	switch {
	case refUsagePattern.MatchString(line):
		return refUsagePattern.ReplaceAllStringFunc(line, func(m string) string {
			return "][" + namespacedID(prefix, m[2:len(m)-1]) + "]"
		})
	case footnoteUsagePattern.MatchString(line):
		return footnoteUsagePattern.ReplaceAllStringFunc(line, func(m string) string {
			return "[^" + namespacedID(prefix, m[2:len(m)-1]) + "]"
		})
	default:
		m := refDefinitionPattern.FindStringSubmatch(line)
		if m == nil {
			return line
		}
		return "[" + m[1] + namespacedID(prefix, m[2]) + "]: " + m[3]
	}
}

func namespacedID(prefix, id string) string {
	if strings.HasPrefix(id, prefix+NamespaceSeparator) {
		return id
	}
	return prefix + NamespaceSeparator + id
}
