// Package format renders and recovers the fixed header blockquotes that
// correlate migrated GitHub issues and comments with their Sourceforge
// source records.
//
// A recovered header is the sole correlation key between the two trackers:
// every issue and comment created by sf2github begins with one of the
// templates below, and the reconciler recognizes its own work by parsing
// the header back out of the destination body. Bodies that do not match
// belong to someone else and are left alone.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Header templates. Placeholders use {name} syntax.
const (
	// IssueHeader opens every migrated issue body. {id} is the numeric
	// Sourceforge ticket number.
	IssueHeader = "> [Sourceforge ticket #{id}](https://sourceforge.net/p/{project}/{mount}/{id}/) reported by {author} on {created}\n\n"

	// CommentHeader opens every migrated comment body. {id} is the
	// Sourceforge post slug, {ticket} the owning ticket number.
	CommentHeader = "> [Sourceforge comment](https://sourceforge.net/p/{project}/{mount}/{ticket}/#{id}) posted by {author} on {created}\n\n"
)

// ErrMismatch reports that a body does not begin with the expected header.
// The reconciler treats it as "not created by this tool" and skips the
// record; it is never fatal.
var ErrMismatch = errors.New("text does not match template")

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Render substitutes every {name} placeholder in template with the
// corresponding entry from fields. A placeholder with no entry is a
// programmer error and returns an error; callers treat it as fatal.
func Render(template string, fields map[string]string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		value, ok := fields[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved placeholders: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Parse matches text against template and returns the placeholder values.
// The pattern is built by quoting the template's literal segments and
// replacing each placeholder with a non-greedy wildcard, anchored at the
// start of text so the template only has to match a body's leading header.
// Returns ErrMismatch when text was not produced by Render on this
// template.
func Parse(template, text string) (map[string]string, error) {
	var names []string
	var pattern strings.Builder
	pattern.WriteString(`(?s)^`)

	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(template, -1) {
		pattern.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		pattern.WriteString(`(.+?)`)
		names = append(names, template[loc[2]:loc[3]])
		last = loc[1]
	}
	pattern.WriteString(regexp.QuoteMeta(template[last:]))

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("template does not compile to a pattern: %w", err)
	}

	match := re.FindStringSubmatch(text)
	if match == nil {
		return nil, ErrMismatch
	}

	// A placeholder that appears more than once (IssueHeader's {id}) is
	// captured more than once; the occurrences are identical for any text
	// produced by Render, so the last capture wins.
	fields := make(map[string]string, len(names))
	for i, name := range names {
		fields[name] = match[i+1]
	}
	return fields, nil
}
