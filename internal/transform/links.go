package transform

import (
	"regexp"
	"strings"
)

// Alias maps a relative documentation path to its absolute URL.
type Alias struct {
	From string `json:"from" toml:"from" yaml:"from"`
	To   string `json:"to" toml:"to" yaml:"to"`
}

// DefaultAliases points the sibling crates' documentation at doc.rust-lang.org.
var DefaultAliases = []Alias{
	{From: "../std", To: "http://doc.rust-lang.org/std"},
	{From: "../reference", To: "http://doc.rust-lang.org/reference"},
	{From: "../rustc", To: "http://doc.rust-lang.org/rustc"},
	{From: "../syntax", To: "http://doc.rust-lang.org/syntax"},
	{From: "../book", To: "http://doc.rust-lang.org/book"},
	{From: "../adv-book", To: "http://doc.rust-lang.org/adv-book"},
	{From: "../core", To: "http://doc.rust-lang.org/core"},
}

var (
	// ](name.html) and ](name.html#sub)
	sectionLinkPattern    = regexp.MustCompile(`\]\(([\w-]+)\.html\)`)
	subsectionLinkPattern = regexp.MustCompile(`\]\(([\w-]+)\.html#([\w-]+)\)`)
	// [id]: name.html and [id]: name.html#sub on a line of their own.
	sectionRefPattern    = regexp.MustCompile(`(?m)^\[(.+)\]:[ \t]([^:^/\n]+)\.html$`)
	subsectionRefPattern = regexp.MustCompile(`(?m)^\[(.+)\]:[ \t]([^:^/\n]+)\.html#([\w-]+)$`)

	superscriptPattern = regexp.MustCompile(`(\d+)<sup>(\d+)</sup>`)
)

// NormalizeLinks replaces relative documentation aliases with absolute URLs
// and turns links to sibling pages into anchors within the aggregated
// document: name.html becomes #sec--name and name.html#sub becomes #sub.
func NormalizeLinks(text string, aliases []Alias) string {
	for _, a := range aliases {
		if a.From == "" {
			continue
		}
		text = strings.ReplaceAll(text, a.From, a.To)
	}
	text = sectionLinkPattern.ReplaceAllString(text, "](#"+anchorPrefix+"${1})")
	text = sectionRefPattern.ReplaceAllString(text, "[${1}]: #"+anchorPrefix+"${2}")
	text = subsectionLinkPattern.ReplaceAllString(text, "](#${2})")
	text = subsectionRefPattern.ReplaceAllString(text, "[${1}]: #${3}")
	return text
}

// NormalizeMath rewrites HTML superscripts after a number into pandoc's
// ^superscript^ form.
func NormalizeMath(text string) string {
	return superscriptPattern.ReplaceAllString(text, "${1}^${2}^")
}
