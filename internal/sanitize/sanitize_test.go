package sanitize

import "testing"

func TestEscapeReferences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"issue reference", "see #1234 for details", "see #​1234 for details"},
		{"mention", "thanks @bob", "thanks @​bob"},
		{"not a pure number", "hash #1234abc stays", "hash #1234abc stays"},
		{"bare hash", "just a # sign", "just a # sign"},
		{"multiple", "#1 and #2 and @alice", "#​1 and #​2 and @​alice"},
		{"hash at end", "fixes #42", "fixes #​42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeReferences(tt.in); got != tt.want {
				t.Errorf("EscapeReferences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLinkRevisions(t *testing.T) {
	commits := map[int]string{
		42: "abc123def456",
		7:  "0011223344",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"short form",
			"fixed in r42",
			"fixed in [r42](https://github.com/owner/repo/commit/abc123def456)",
		},
		{
			"revision form",
			"see revision 42",
			"see [revision 42](https://github.com/owner/repo/commit/abc123def456)",
		},
		{
			"commit form",
			"broken by commit 7",
			"broken by [commit 7](https://github.com/owner/repo/commit/0011223344)",
		},
		{
			"unmapped revision",
			"maybe r999 did it",
			"maybe r999 did it",
		},
		{
			"not a revision token",
			"error 42 occurred",
			"error 42 occurred",
		},
		{
			"embedded in word",
			"var42 is fine",
			"var42 is fine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinkRevisions(tt.in, commits, "owner", "repo"); got != tt.want {
				t.Errorf("LinkRevisions(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLinkRevisionsNoMapping(t *testing.T) {
	in := "fixed in r42"
	if got := LinkRevisions(in, nil, "owner", "repo"); got != in {
		t.Errorf("LinkRevisions with empty mapping = %q, want unchanged", got)
	}
}

func TestFixHeadingUnderlines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"underline after text gains space",
			"Title\n===\nbody",
			"Title\n ===\nbody",
		},
		{
			"dashes after text gain space",
			"Title\n---\nbody",
			"Title\n ---\nbody",
		},
		{
			"underline after blank line unchanged",
			"Title\n\n===\nbody",
			"Title\n\n===\nbody",
		},
		{
			"underline at start unchanged",
			"===\nbody",
			"===\nbody",
		},
		{
			"mixed characters left alone",
			"Title\n=-=\nbody",
			"Title\n=-=\nbody",
		},
		{
			"no underlines",
			"just\nsome\ntext",
			"just\nsome\ntext",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixHeadingUnderlines(tt.in); got != tt.want {
				t.Errorf("FixHeadingUnderlines(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestBody verifies the composition applied to every migrated body.
func TestBody(t *testing.T) {
	commits := map[int]string{42: "abc123"}
	in := "Title\n===\nfixed #12 in r42, thanks @bob"
	want := "Title\n ===\nfixed #​12 in [r42](https://github.com/o/r/commit/abc123), thanks @​bob"

	if got := Body(in, commits, "o", "r"); got != want {
		t.Errorf("Body() = %q, want %q", got, want)
	}
}
