// Package sourceforge models the Sourceforge project export format.
//
// An export is a single JSON document with a top-level "tickets" array.
// Records are read-only: the loader decodes them once per run and the
// reconciler never mutates them.
package sourceforge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Dump is the top-level structure of a Sourceforge tracker export.
type Dump struct {
	Tickets []Ticket `json:"tickets"`
}

// Ticket is one tracker ticket from the export.
type Ticket struct {
	Num          int          `json:"ticket_num"`
	Summary      string       `json:"summary"`
	Description  string       `json:"description"`
	ReportedBy   string       `json:"reported_by"`
	CreatedDate  string       `json:"created_date"`
	Status       string       `json:"status"`
	CustomFields CustomFields `json:"custom_fields"`
	AssignedTo   string       `json:"assigned_to"`
	Discussion   Thread       `json:"discussion_thread"`
}

// CustomFields carries the tracker's per-project fields. Only the
// milestone is consumed; everything else in the export is ignored.
type CustomFields struct {
	Milestone string `json:"_milestone"`
}

// Thread holds a ticket's ordered comment stream.
type Thread struct {
	Posts []Post `json:"posts"`
}

// Post is one comment (possibly with attachments) on a ticket. Slug is
// Sourceforge's stable identifier for the post and is what migrated
// comments are correlated by.
type Post struct {
	Slug        string       `json:"slug"`
	Author      string       `json:"author"`
	Timestamp   string       `json:"timestamp"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is a file attached to a post. Attachments stay on
// Sourceforge's servers; migration links to them rather than re-uploading.
type Attachment struct {
	URL   string `json:"url"`
	Bytes int64  `json:"bytes"`
}

// LoadDump reads and decodes a Sourceforge export file and returns its
// tickets sorted ascending by ticket number, so issue creation preserves
// the original order. A dump with zero tickets is valid. Unreadable files
// and malformed JSON are fatal.
func LoadDump(path string) ([]Ticket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse dump %s: %w", path, err)
	}

	sort.Slice(dump.Tickets, func(i, j int) bool {
		return dump.Tickets[i].Num < dump.Tickets[j].Num
	})

	return dump.Tickets, nil
}

// Milestone returns the ticket's milestone custom field, trimmed.
func (t *Ticket) Milestone() string {
	return strings.TrimSpace(t.CustomFields.Milestone)
}

// Closed reports whether the ticket's status counts as closed. An explicit
// status list takes precedence; with no list configured, any status with
// the "closed" prefix counts (Sourceforge's closed-fixed, closed-wontfix,
// and friends).
func (t *Ticket) Closed(closedStatuses []string) bool {
	if len(closedStatuses) > 0 {
		for _, s := range closedStatuses {
			if t.Status == s {
				return true
			}
		}
		return false
	}
	return strings.HasPrefix(t.Status, "closed")
}
