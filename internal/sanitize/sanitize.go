// Package sanitize rewrites ticket and comment bodies so that text which
// was inert on Sourceforge stays inert on GitHub.
//
// GitHub's Markdown renderer auto-links #123 to its own issues, notifies
// whoever owns a @name, and turns a line of = or - into a heading underline
// even without the blank-line separation Sourceforge's renderer required.
// Migrated bodies are rewritten once, at creation time, to neutralize all
// three.
package sanitize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// zeroWidthSpace separates a trigger character from the token that follows
// it. The text renders unchanged but no longer auto-links or notifies.
const zeroWidthSpace = "​"

var (
	issueRefPattern  = regexp.MustCompile(`#(\d+)\b`)
	mentionPattern   = regexp.MustCompile(`@([A-Za-z0-9][A-Za-z0-9-]*)`)
	revisionPattern  = regexp.MustCompile(`\b(?:r|revision |commit )(\d+)\b`)
	underlinePattern = regexp.MustCompile(`^(=+|-+)$`)
)

// EscapeReferences neutralizes bare issue references and mentions.
// #123 and @bob gain a zero-width space after the trigger character;
// #1234abc is not a pure number and is left alone.
func EscapeReferences(text string) string {
	text = issueRefPattern.ReplaceAllString(text, "#"+zeroWidthSpace+"${1}")
	return mentionPattern.ReplaceAllString(text, "@"+zeroWidthSpace+"${1}")
}

// LinkRevisions rewrites r123, "revision 123", and "commit 123" tokens into
// links to the mapped GitHub commit. Revision numbers absent from commits
// are left as plain text.
func LinkRevisions(text string, commits map[int]string, owner, repo string) string {
	if len(commits) == 0 {
		return text
	}
	return revisionPattern.ReplaceAllStringFunc(text, func(token string) string {
		sub := revisionPattern.FindStringSubmatch(token)
		rev, err := strconv.Atoi(sub[1])
		if err != nil {
			return token
		}
		hash, ok := commits[rev]
		if !ok {
			return token
		}
		return fmt.Sprintf("[%s](https://github.com/%s/%s/commit/%s)", token, owner, repo, hash)
	})
}

// FixHeadingUnderlines suppresses spurious setext headings. Sourceforge's
// renderer only treated a line of = or - as a heading underline after a
// blank-line-separated paragraph; GitHub's applies it to any preceding
// line. A leading space keeps GitHub from interpreting the underline while
// rendering identically. Lines already preceded by a blank line (or at the
// start of the text) are unchanged.
func FixHeadingUnderlines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i == 0 || !underlinePattern.MatchString(line) {
			continue
		}
		if strings.TrimSpace(lines[i-1]) != "" {
			lines[i] = " " + line
		}
	}
	return strings.Join(lines, "\n")
}

// Body applies the full rewrite every migrated body gets: heading fix,
// reference escaping, then revision linking.
func Body(text string, commits map[int]string, owner, repo string) string {
	text = FixHeadingUnderlines(text)
	text = EscapeReferences(text)
	return LinkRevisions(text, commits, owner, repo)
}
