package transform

import "regexp"

// fileTitlePattern matches a pandoc "% Title" line. The separator is kept to
// horizontal whitespace so the match cannot run into the next line.
var fileTitlePattern = regexp.MustCompile(`(?m)^%[ \t][^\n]+\n`)

// StripFileTitle removes the first document title line from text. It is not
// fence-aware: the directive is only legal at the top of a file.
func StripFileTitle(text string) string {
	loc := fileTitlePattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + text[loc[1]:]
}
