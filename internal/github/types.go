// Package github provides client and data types for the GitHub REST API.
//
// This is a thin CRUD facade over the endpoints the migration needs:
// issue list/create/update, comment list/create, label replacement, and
// milestone list/create. It deliberately has no retry logic: any transport
// error or non-2xx response (rate limits included) is returned to the
// caller, which aborts the run and relies on re-invocation plus the
// reconciler's idempotent convergence to pick up where it left off.
package github

import (
	"net/http"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMutationDelay is the pause after every mutating call. GitHub's
	// comment ordering is eventually consistent; without the pause,
	// comments created back to back can land out of order.
	DefaultMutationDelay = time.Second

	// MaxPageSize is the number of records fetched per page.
	MaxPageSize = 100

	// MaxPages is the maximum number of pages to fetch before stopping.
	// This prevents infinite loops from a misbehaving endpoint.
	MaxPages = 1000
)

// Client provides methods to interact with the GitHub REST API.
type Client struct {
	Token         string        // GitHub personal access token
	Owner         string        // Repository owner (user or org)
	Repo          string        // Repository name
	BaseURL       string        // API base URL (default: https://api.github.com)
	HTTPClient    *http.Client  // Optional custom HTTP client
	MutationDelay time.Duration // Pause after each mutating call
}

// Issue represents an issue from the GitHub API.
type Issue struct {
	ID          int        `json:"id"`     // Global unique ID
	Number      int        `json:"number"` // Repository-scoped issue number
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"`    // "open" or "closed"
	Comments    int        `json:"comments"` // Comment count
	Labels      []Label    `json:"labels"`
	Assignee    *User      `json:"assignee,omitempty"`
	Milestone   *Milestone `json:"milestone,omitempty"`
	HTMLURL     string     `json:"html_url"`
	PullRequest *PullRef   `json:"pull_request,omitempty"` // Non-nil if this is a PR
}

// PullRef indicates an issue is actually a pull request.
// The GitHub Issues API returns PRs alongside issues; this field
// distinguishes them.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// Comment represents an issue comment from the GitHub API.
type Comment struct {
	ID   int    `json:"id"`
	Body string `json:"body"`
	User *User  `json:"user,omitempty"`
}

// User represents a GitHub user.
type User struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
}

// Label represents a GitHub label.
type Label struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Milestone represents a GitHub milestone.
type Milestone struct {
	ID     int    `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"` // "open" or "closed"
}

// Repository represents a GitHub repository (for the auth check).
type Repository struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	FullName    string       `json:"full_name"`
	Private     bool         `json:"private"`
	Permissions *Permissions `json:"permissions,omitempty"`
}

// Permissions reports the authenticated user's access to a repository.
type Permissions struct {
	Admin bool `json:"admin"`
	Push  bool `json:"push"`
	Pull  bool `json:"pull"`
}
