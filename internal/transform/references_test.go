package transform

import (
	"fmt"
	"testing"
)

func TestNamespaceReferencesParagraph(t *testing.T) {
	text := "Lorem ipsum [dolor sit][amet], [consectetur adipisicing][elit].\n" +
		"\n" +
		"Odio provident repellendus temporibus possimus magnam odit [neque obcaecati][illo], " +
		"ab tenetur deserunt quae quia? Asperiores a hic, maiores quaerat, autem ea!\n"
	want := "Lorem ipsum [dolor sit][PREFIX--amet], [consectetur adipisicing][PREFIX--elit].\n" +
		"\n" +
		"Odio provident repellendus temporibus possimus magnam odit [neque obcaecati][PREFIX--illo], " +
		"ab tenetur deserunt quae quia? Asperiores a hic, maiores quaerat, autem ea!\n"

	if got := NamespaceReferences(text, "PREFIX"); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestNamespaceReferences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"reference usage", "Lorem ipsum [dolor sit][amet]", "Lorem ipsum [dolor sit][p--amet]"},
		{"footnote usage", "Text[^1] more[^note].", "Text[^p--1] more[^p--note]."},
		{"link definition", "[amet]: http://example.com", "[p--amet]: http://example.com"},
		{"footnote definition", "[^1]: The note.", "[^p--1]: The note."},
		{"usage wins over footnote", "[a][b] and [^c]", "[a][p--b] and [^c]"},
		{"plain link untouched", "[text](http://example.com)", "[text](http://example.com)"},
		{"fenced block untouched", "```\n[a][b]\n[x]: y\n```\n[a][b]", "```\n[a][b]\n[x]: y\n```\n[a][p--b]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NamespaceReferences(tt.text, "p"); got != tt.want {
				t.Errorf("NamespaceReferences(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNamespaceReferencesIdempotent(t *testing.T) {
	text := "See [the docs][docs] and[^1].\n\n[docs]: http://example.com\n[^1]: Note.\n"
	once := NamespaceReferences(text, "ch01.md")
	twice := NamespaceReferences(once, "ch01.md")
	if once != twice {
		t.Errorf("second pass changed the text:\n%s\nvs\n%s", once, twice)
	}
}

func TestNamespaceReferencesDistinctIDs(t *testing.T) {
	ids := []string{"a", "b", "a-b", "1", "10", "Vec", "vec"}
	seen := make(map[string]string)
	for _, id := range ids {
		got := NamespaceReferences(fmt.Sprintf("[x][%s]", id), "file.md")
		if prev, ok := seen[got]; ok {
			t.Fatalf("ids %q and %q both map to %q", prev, id, got)
		}
		seen[got] = id
	}
}

// An id that already starts with the prefix is treated as namespaced, so it
// shares its result with the bare id. Ids without the prefix stay distinct.
func TestNamespaceReferencesPrefixedID(t *testing.T) {
	bare := NamespaceReferences("[x][amet]", "ch.md")
	prefixed := NamespaceReferences("[x][ch.md--amet]", "ch.md")
	if bare != "[x][ch.md--amet]" || prefixed != bare {
		t.Errorf("bare = %q, prefixed = %q, want both %q", bare, prefixed, "[x][ch.md--amet]")
	}
	if other := NamespaceReferences("[x][ch.mdamet]", "ch.md"); other != "[x][ch.md--ch.mdamet]" {
		t.Errorf("id sharing only the prefix text = %q", other)
	}
}
