// Package migrate reconciles a Sourceforge tracker export against a GitHub
// repository's issues.
//
// The engine converges the destination toward the source: it creates
// issues and comments that are missing and updates state, labels,
// milestone, and assignee where they differ. Every mutation is preceded by
// an equality check against current destination state, so re-running with
// unchanged source data performs zero mutating calls. Correlation is by
// the header blockquote each migrated body carries; destination issues
// without a parseable header were not created by this tool and are never
// touched.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/forgeport/sf2github/internal/config"
	"github.com/forgeport/sf2github/internal/format"
	"github.com/forgeport/sf2github/internal/github"
	"github.com/forgeport/sf2github/internal/sanitize"
	"github.com/forgeport/sf2github/internal/sourceforge"
)

// Gateway is the slice of the GitHub client the engine needs. Tests
// substitute a fake.
type Gateway interface {
	ListIssues(ctx context.Context, state string) ([]github.Issue, error)
	ListComments(ctx context.Context, number int) ([]github.Comment, error)
	CreateIssue(ctx context.Context, title, body string) (*github.Issue, error)
	CreateComment(ctx context.Context, number int, body string) (*github.Comment, error)
	EditIssue(ctx context.Context, number int, updates map[string]interface{}) (*github.Issue, error)
	ReplaceLabels(ctx context.Context, number int, labels []string) error
	ListMilestones(ctx context.Context) ([]github.Milestone, error)
	CreateMilestone(ctx context.Context, title string) (*github.Milestone, error)
}

// Engine drives the migration.
type Engine struct {
	Gateway Gateway
	Config  *config.Config

	// DryRun logs planned mutations without performing them.
	DryRun bool

	// OnMessage receives one line per mutating step, for audit output.
	OnMessage func(msg string)
}

// Result summarizes what a run did.
type Result struct {
	IssuesCreated     int
	CommentsCreated   int
	MilestonesCreated int
	StateUpdates      int
	LabelUpdates      int
	MilestoneUpdates  int
	AssigneeUpdates   int

	// Unmanaged counts destination issues without a parseable header,
	// excluded from reconciliation.
	Unmanaged int
}

// Mutations returns the total number of mutating steps the run performed
// (or would have performed, in dry-run).
func (r *Result) Mutations() int {
	return r.IssuesCreated + r.CommentsCreated + r.MilestonesCreated +
		r.StateUpdates + r.LabelUpdates + r.MilestoneUpdates + r.AssigneeUpdates
}

// Run migrates the tickets. Tickets must be sorted ascending by number;
// sourceforge.LoadDump guarantees that, preserving creation order in the
// destination. Any gateway error aborts the run immediately: recovery is
// re-invocation, which converges from wherever the failed run stopped.
func (e *Engine) Run(ctx context.Context, tickets []sourceforge.Ticket) (*Result, error) {
	result := &Result{}

	index, err := e.indexIssues(ctx, result)
	if err != nil {
		return nil, err
	}

	milestones, err := e.resolveMilestones(ctx, result)
	if err != nil {
		return nil, err
	}

	if err := e.createPass(ctx, tickets, index, result); err != nil {
		return nil, err
	}

	if err := e.updatePass(ctx, tickets, index, milestones, result); err != nil {
		return nil, err
	}

	return result, nil
}

// indexIssues fetches all destination issues (open then closed) and maps
// them by the Sourceforge ticket ID recovered from their header. Issues
// whose body does not parse are counted and excluded: they are not owned
// by this tool.
func (e *Engine) indexIssues(ctx context.Context, result *Result) (map[int]*github.Issue, error) {
	index := make(map[int]*github.Issue)

	for _, state := range []string{"open", "closed"} {
		issues, err := e.Gateway.ListIssues(ctx, state)
		if err != nil {
			return nil, err
		}
		for i := range issues {
			issue := &issues[i]
			fields, err := format.Parse(format.IssueHeader, issue.Body)
			if errors.Is(err, format.ErrMismatch) {
				result.Unmanaged++
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to parse issue #%d header: %w", issue.Number, err)
			}
			id, err := strconv.Atoi(fields["id"])
			if err != nil {
				// Header-shaped but the ID is not numeric: treat as
				// unmanaged rather than aborting.
				result.Unmanaged++
				continue
			}
			index[id] = issue
		}
	}

	return index, nil
}

// resolveMilestones ensures every configured destination milestone exists
// and returns the title → number mapping the update pass needs.
func (e *Engine) resolveMilestones(ctx context.Context, result *Result) (map[string]int, error) {
	byTitle := make(map[string]int)

	existing, err := e.Gateway.ListMilestones(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		byTitle[m.Title] = m.Number
	}

	// Deterministic creation order regardless of map iteration.
	var wanted []string
	seen := make(map[string]bool)
	for _, title := range e.Config.Milestones {
		if !seen[title] {
			seen[title] = true
			wanted = append(wanted, title)
		}
	}
	sort.Strings(wanted)

	for _, title := range wanted {
		if _, ok := byTitle[title]; ok {
			continue
		}
		if e.DryRun {
			e.logf("would create milestone %q", title)
			result.MilestonesCreated++
			continue
		}
		milestone, err := e.Gateway.CreateMilestone(ctx, title)
		if err != nil {
			return nil, err
		}
		byTitle[milestone.Title] = milestone.Number
		result.MilestonesCreated++
		e.logf("created milestone %q (#%d)", milestone.Title, milestone.Number)
	}

	return byTitle, nil
}

// createPass creates a destination issue for every ticket absent from the
// index, and indexes the result so the update pass sees it.
func (e *Engine) createPass(ctx context.Context, tickets []sourceforge.Ticket, index map[int]*github.Issue, result *Result) error {
	for i := range tickets {
		ticket := &tickets[i]
		if _, ok := index[ticket.Num]; ok {
			continue
		}

		header, err := e.issueHeader(ticket)
		if err != nil {
			return err
		}
		body := header + e.sanitizeBody(ticket.Description)

		if e.DryRun {
			e.logf("would create issue for ticket %d: %s", ticket.Num, ticket.Summary)
			result.IssuesCreated++
			continue
		}

		issue, err := e.Gateway.CreateIssue(ctx, ticket.Summary, body)
		if err != nil {
			return err
		}
		index[ticket.Num] = issue
		result.IssuesCreated++
		e.logf("created issue #%d for ticket %d: %s", issue.Number, ticket.Num, ticket.Summary)
	}
	return nil
}

// updatePass converges every indexed issue on its ticket's current values.
// Each aspect (comments, state, labels, milestone, assignee) converges
// independently behind its own equality check.
func (e *Engine) updatePass(ctx context.Context, tickets []sourceforge.Ticket, index map[int]*github.Issue, milestones map[string]int, result *Result) error {
	for i := range tickets {
		ticket := &tickets[i]
		issue, ok := index[ticket.Num]
		if !ok {
			// Dry-run planned the creation; nothing to converge yet.
			continue
		}

		if err := e.syncComments(ctx, ticket, issue, result); err != nil {
			return err
		}
		if err := e.syncState(ctx, ticket, issue, result); err != nil {
			return err
		}
		if err := e.syncLabels(ctx, ticket, issue, result); err != nil {
			return err
		}
		if err := e.syncMilestone(ctx, ticket, issue, milestones, result); err != nil {
			return err
		}
		if err := e.syncAssignee(ctx, ticket, issue, result); err != nil {
			return err
		}
	}
	return nil
}

// syncComments creates destination comments for source posts that are
// missing. When the destination comment count already equals the source
// post count the whole step is skipped. That equality is an approximation,
// not a content check: a deleted-plus-added pair with matching counts goes
// unnoticed. The shortcut is part of the tool's documented behavior; do
// not "fix" it without accepting the observable change.
func (e *Engine) syncComments(ctx context.Context, ticket *sourceforge.Ticket, issue *github.Issue, result *Result) error {
	posts := ticket.Discussion.Posts
	if issue.Comments == len(posts) {
		return nil
	}

	comments, err := e.Gateway.ListComments(ctx, issue.Number)
	if err != nil {
		return err
	}

	migrated := make(map[string]bool, len(comments))
	for _, comment := range comments {
		fields, err := format.Parse(format.CommentHeader, comment.Body)
		if errors.Is(err, format.ErrMismatch) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to parse comment header on issue #%d: %w", issue.Number, err)
		}
		migrated[fields["id"]] = true
	}

	for p := range posts {
		post := &posts[p]
		if migrated[post.Slug] {
			continue
		}

		header, err := e.commentHeader(ticket, post)
		if err != nil {
			return err
		}
		body := header + e.sanitizeBody(post.Text) + attachmentListing(post.Attachments)

		if e.DryRun {
			e.logf("would create comment %s on issue #%d", post.Slug, issue.Number)
			result.CommentsCreated++
			continue
		}

		if _, err := e.Gateway.CreateComment(ctx, issue.Number, body); err != nil {
			return err
		}
		result.CommentsCreated++
		e.logf("created comment %s on issue #%d", post.Slug, issue.Number)
	}
	return nil
}

func (e *Engine) syncState(ctx context.Context, ticket *sourceforge.Ticket, issue *github.Issue, result *Result) error {
	wantClosed := ticket.Closed(e.Config.ClosedStatuses)
	if wantClosed == (issue.State == "closed") {
		return nil
	}

	state := "open"
	if wantClosed {
		state = "closed"
	}

	if e.DryRun {
		e.logf("would mark issue #%d %s", issue.Number, state)
		result.StateUpdates++
		return nil
	}

	updated, err := e.Gateway.EditIssue(ctx, issue.Number, map[string]interface{}{"state": state})
	if err != nil {
		return err
	}
	issue.State = updated.State
	result.StateUpdates++
	e.logf("marked issue #%d %s (status %q)", issue.Number, state, ticket.Status)
	return nil
}

func (e *Engine) syncLabels(ctx context.Context, ticket *sourceforge.Ticket, issue *github.Issue, result *Result) error {
	want := e.Config.StatusLabels[ticket.Status]

	have := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		have = append(have, label.Name)
	}

	if sameSet(want, have) {
		return nil
	}

	if e.DryRun {
		e.logf("would set labels on issue #%d to %v", issue.Number, want)
		result.LabelUpdates++
		return nil
	}

	if err := e.Gateway.ReplaceLabels(ctx, issue.Number, want); err != nil {
		return err
	}
	issue.Labels = issue.Labels[:0]
	for _, name := range want {
		issue.Labels = append(issue.Labels, github.Label{Name: name})
	}
	result.LabelUpdates++
	e.logf("set labels on issue #%d to %v (status %q)", issue.Number, want, ticket.Status)
	return nil
}

func (e *Engine) syncMilestone(ctx context.Context, ticket *sourceforge.Ticket, issue *github.Issue, milestones map[string]int, result *Result) error {
	title, ok := e.Config.Milestones[ticket.Milestone()]
	if !ok {
		// Unmapped milestone: deliberate no-op, not an error.
		return nil
	}

	current := ""
	if issue.Milestone != nil {
		current = issue.Milestone.Title
	}
	if current == title {
		return nil
	}

	if e.DryRun {
		e.logf("would set milestone on issue #%d to %q", issue.Number, title)
		result.MilestoneUpdates++
		return nil
	}

	number, ok := milestones[title]
	if !ok {
		return fmt.Errorf("milestone %q was not resolved", title)
	}

	updated, err := e.Gateway.EditIssue(ctx, issue.Number, map[string]interface{}{"milestone": number})
	if err != nil {
		return err
	}
	issue.Milestone = updated.Milestone
	result.MilestoneUpdates++
	e.logf("set milestone on issue #%d to %q", issue.Number, title)
	return nil
}

func (e *Engine) syncAssignee(ctx context.Context, ticket *sourceforge.Ticket, issue *github.Issue, result *Result) error {
	login, ok := e.Config.Users[ticket.AssignedTo]
	if !ok {
		// Unmapped user: deliberate no-op, not an error.
		return nil
	}

	current := ""
	if issue.Assignee != nil {
		current = issue.Assignee.Login
	}
	if current == login {
		return nil
	}

	if e.DryRun {
		e.logf("would assign issue #%d to %s", issue.Number, login)
		result.AssigneeUpdates++
		return nil
	}

	updated, err := e.Gateway.EditIssue(ctx, issue.Number, map[string]interface{}{"assignee": login})
	if err != nil {
		return err
	}
	issue.Assignee = updated.Assignee
	result.AssigneeUpdates++
	e.logf("assigned issue #%d to %s", issue.Number, login)
	return nil
}

// issueHeader renders the correlation header for a ticket.
func (e *Engine) issueHeader(ticket *sourceforge.Ticket) (string, error) {
	return format.Render(format.IssueHeader, map[string]string{
		"id":      strconv.Itoa(ticket.Num),
		"project": e.Config.Sourceforge.Project,
		"mount":   e.Config.Sourceforge.Mount,
		"author":  ticket.ReportedBy,
		"created": ticket.CreatedDate,
	})
}

// commentHeader renders the correlation header for a post.
func (e *Engine) commentHeader(ticket *sourceforge.Ticket, post *sourceforge.Post) (string, error) {
	return format.Render(format.CommentHeader, map[string]string{
		"id":      post.Slug,
		"ticket":  strconv.Itoa(ticket.Num),
		"project": e.Config.Sourceforge.Project,
		"mount":   e.Config.Sourceforge.Mount,
		"author":  post.Author,
		"created": post.Timestamp,
	})
}

func (e *Engine) sanitizeBody(text string) string {
	return sanitize.Body(text, e.Config.Revisions, e.Config.GitHub.Owner, e.Config.GitHub.Repo)
}

// attachmentListing renders a post's attachments as a trailing Markdown
// list linking back to Sourceforge.
func attachmentListing(attachments []sourceforge.Attachment) string {
	if len(attachments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n**Attachments:**\n")
	for _, a := range attachments {
		size := uint64(0)
		if a.Bytes > 0 {
			size = uint64(a.Bytes)
		}
		fmt.Fprintf(&b, "\n- [%s](%s) (%s)", path.Base(a.URL), a.URL, humanize.Bytes(size))
	}
	return b.String()
}

// sameSet compares two label sets ignoring order and duplicates.
func sameSet(a, b []string) bool {
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}
	setB := make(map[string]bool, len(b))
	for _, s := range b {
		setB[s] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for s := range setA {
		if !setB[s] {
			return false
		}
	}
	return true
}

func (e *Engine) logf(msg string, args ...interface{}) {
	if e.OnMessage == nil {
		return
	}
	e.OnMessage("[sf2github] " + fmt.Sprintf(msg, args...))
}
