// Package transform implements the markdown rewrite pipeline that prepares
// one file of a multi-file book for concatenation into a single document.
//
// The pipeline runs as a sequence of named stages:
//  1. Shift heading levels
//  2. Strip the "% title" line
//  3. Namespace reference and footnote ids
//  4. Normalize superscripts
//  5. Rewrite cross-document links
//  6. Canonicalize code fences (drop hidden lines, wrap long lines)
//
// Stages that must not touch code samples fold ScanFence over the lines of
// their input. The fence state lives only for the duration of one call.
package transform

// Stage is one named text-to-text rewrite.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Options carries the per-file parameters of the pipeline.
type Options struct {
	// TitleLevel is the heading increase passed to ShiftHeadings. A value
	// of 1 keeps heading levels unchanged; values below 1 are treated as 1.
	TitleLevel int
	// RefPrefix namespaces reference and footnote ids.
	RefPrefix string
	// Aliases replaces relative documentation paths. Nil selects
	// DefaultAliases; an empty non-nil slice disables the substitution.
	Aliases []Alias
	Code    CodeOptions
}

// Stages returns the pipeline stages for opts in execution order. Heading
// and title rewrites run before reference namespacing.
func Stages(opts Options) []Stage {
	level := max(opts.TitleLevel, 1)
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases
	}
	return []Stage{
		{Name: "shift-headings", Apply: func(s string) string { return ShiftHeadings(s, level) }},
		{Name: "strip-file-title", Apply: StripFileTitle},
		{Name: "namespace-references", Apply: func(s string) string { return NamespaceReferences(s, opts.RefPrefix) }},
		{Name: "normalize-math", Apply: NormalizeMath},
		{Name: "normalize-links", Apply: func(s string) string { return NormalizeLinks(s, aliases) }},
		{Name: "canonicalize-code", Apply: func(s string) string { return CanonicalizeCode(s, opts.Code) }},
	}
}

// Run applies stages to text in order.
func Run(text string, stages ...Stage) string {
	for _, stage := range stages {
		text = stage.Apply(text)
	}
	return text
}

// Pipeline runs every stage on one markdown file and returns the result.
func Pipeline(text string, opts Options) string {
	return Run(text, Stages(opts)...)
}
