package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestNewClient verifies the constructor creates a properly configured client.
func TestNewClient(t *testing.T) {
	client := NewClient("test-token", "owner", "repo")

	if client.Token != "test-token" {
		t.Errorf("Token = %q, want %q", client.Token, "test-token")
	}
	if client.Owner != "owner" {
		t.Errorf("Owner = %q, want %q", client.Owner, "owner")
	}
	if client.Repo != "repo" {
		t.Errorf("Repo = %q, want %q", client.Repo, "repo")
	}
	if client.BaseURL != DefaultAPIEndpoint {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL, DefaultAPIEndpoint)
	}
	if client.MutationDelay != DefaultMutationDelay {
		t.Errorf("MutationDelay = %v, want %v", client.MutationDelay, DefaultMutationDelay)
	}
	if client.HTTPClient == nil {
		t.Error("HTTPClient is nil, want non-nil default client")
	}
}

// TestClientBuilders verifies the With* builders preserve other fields.
func TestClientBuilders(t *testing.T) {
	custom := &http.Client{Timeout: 60 * time.Second}
	client := NewClient("token", "owner", "repo").
		WithHTTPClient(custom).
		WithBaseURL("https://github.example.com/api/v3").
		WithMutationDelay(0)

	if client.HTTPClient != custom {
		t.Error("HTTPClient not set to custom client")
	}
	if client.BaseURL != "https://github.example.com/api/v3" {
		t.Errorf("BaseURL = %q, want custom URL", client.BaseURL)
	}
	if client.MutationDelay != 0 {
		t.Errorf("MutationDelay = %v, want 0", client.MutationDelay)
	}
	if client.Token != "token" {
		t.Errorf("Token = %q, want %q", client.Token, "token")
	}
}

// testClient returns a client pointed at the given test server, with the
// mutation delay disabled.
func testClient(server *httptest.Server) *Client {
	return NewClient("token", "owner", "repo").
		WithBaseURL(server.URL).
		WithMutationDelay(0)
}

// TestListIssuesPagination verifies that listing follows pages until a
// short page and aggregates the results.
func TestListIssuesPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("state"); got != "open" {
			t.Errorf("state param = %q, want %q", got, "open")
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page param = %q, want %q", got, "100")
		}

		page := r.URL.Query().Get("page")
		var issues []Issue
		switch page {
		case "1":
			for i := 1; i <= MaxPageSize; i++ {
				issues = append(issues, Issue{Number: i, State: "open"})
			}
		case "2":
			issues = []Issue{{Number: MaxPageSize + 1, State: "open"}}
		default:
			t.Errorf("unexpected page %q requested", page)
		}
		_ = json.NewEncoder(w).Encode(issues)
	}))
	defer server.Close()

	issues, err := testClient(server).ListIssues(context.Background(), "open")
	if err != nil {
		t.Fatalf("ListIssues() returned error: %v", err)
	}
	if len(issues) != MaxPageSize+1 {
		t.Errorf("len(issues) = %d, want %d", len(issues), MaxPageSize+1)
	}
}

// TestListIssuesFiltersPullRequests verifies PRs returned by the issues
// endpoint are dropped.
func TestListIssuesFiltersPullRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issues := []Issue{
			{Number: 1, State: "open"},
			{Number: 2, State: "open", PullRequest: &PullRef{URL: "https://api.github.com/repos/owner/repo/pulls/2"}},
			{Number: 3, State: "open"},
		}
		_ = json.NewEncoder(w).Encode(issues)
	}))
	defer server.Close()

	issues, err := testClient(server).ListIssues(context.Background(), "open")
	if err != nil {
		t.Fatalf("ListIssues() returned error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("len(issues) = %d, want 2", len(issues))
	}
	for _, issue := range issues {
		if issue.Number == 2 {
			t.Error("pull request #2 was not filtered out")
		}
	}
}

// TestCreateIssue verifies the request shape and response decoding.
func TestCreateIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/repos/owner/repo/issues") {
			t.Errorf("path = %q, want .../repos/owner/repo/issues", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer token")
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if payload["title"] != "Crash on empty input" {
			t.Errorf("title = %v", payload["title"])
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Issue{Number: 12, Title: "Crash on empty input", State: "open"})
	}))
	defer server.Close()

	issue, err := testClient(server).CreateIssue(context.Background(), "Crash on empty input", "body text")
	if err != nil {
		t.Fatalf("CreateIssue() returned error: %v", err)
	}
	if issue.Number != 12 {
		t.Errorf("issue.Number = %d, want 12", issue.Number)
	}
}

// TestReplaceLabels verifies the wholesale label replacement call.
func TestReplaceLabels(t *testing.T) {
	var gotLabels []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %q, want PUT", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/repos/owner/repo/issues/7/labels") {
			t.Errorf("path = %q", r.URL.Path)
		}
		var payload struct {
			Labels []string `json:"labels"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		gotLabels = payload.Labels
		_ = json.NewEncoder(w).Encode([]Label{})
	}))
	defer server.Close()

	err := testClient(server).ReplaceLabels(context.Background(), 7, []string{"wontfix"})
	if err != nil {
		t.Fatalf("ReplaceLabels() returned error: %v", err)
	}
	if len(gotLabels) != 1 || gotLabels[0] != "wontfix" {
		t.Errorf("labels sent = %v, want [wontfix]", gotLabels)
	}
}

// TestReplaceLabelsEmpty verifies a nil set is sent as an empty array, not
// omitted (which would leave existing labels in place).
func TestReplaceLabelsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		labels, ok := payload["labels"].([]interface{})
		if !ok {
			t.Fatalf("labels field missing or wrong type: %v", payload["labels"])
		}
		if len(labels) != 0 {
			t.Errorf("labels sent = %v, want empty array", labels)
		}
		_ = json.NewEncoder(w).Encode([]Label{})
	}))
	defer server.Close()

	if err := testClient(server).ReplaceLabels(context.Background(), 7, nil); err != nil {
		t.Fatalf("ReplaceLabels() returned error: %v", err)
	}
}

// TestEditIssue verifies PATCH semantics for state changes.
func TestEditIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %q, want PATCH", r.Method)
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if payload["state"] != "closed" {
			t.Errorf("state = %v, want closed", payload["state"])
		}
		_ = json.NewEncoder(w).Encode(Issue{Number: 7, State: "closed"})
	}))
	defer server.Close()

	issue, err := testClient(server).EditIssue(context.Background(), 7, map[string]interface{}{"state": "closed"})
	if err != nil {
		t.Fatalf("EditIssue() returned error: %v", err)
	}
	if issue.State != "closed" {
		t.Errorf("issue.State = %q, want closed", issue.State)
	}
}

// TestMilestones verifies listing and creation.
func TestMilestones(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/repos/owner/repo/milestones") {
			t.Errorf("path = %q", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			if got := r.URL.Query().Get("state"); got != "all" {
				t.Errorf("state param = %q, want all", got)
			}
			_ = json.NewEncoder(w).Encode([]Milestone{{Number: 1, Title: "v1.0"}})
		case http.MethodPost:
			var payload map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Milestone{Number: 2, Title: payload["title"].(string)})
		default:
			t.Errorf("unexpected method %q", r.Method)
		}
	}))
	defer server.Close()

	client := testClient(server)

	milestones, err := client.ListMilestones(context.Background())
	if err != nil {
		t.Fatalf("ListMilestones() returned error: %v", err)
	}
	if len(milestones) != 1 || milestones[0].Title != "v1.0" {
		t.Errorf("milestones = %+v, want one titled v1.0", milestones)
	}

	created, err := client.CreateMilestone(context.Background(), "v1.1")
	if err != nil {
		t.Fatalf("CreateMilestone() returned error: %v", err)
	}
	if created.Number != 2 || created.Title != "v1.1" {
		t.Errorf("created = %+v, want number 2 titled v1.1", created)
	}
}

// TestAPIErrorIsFatal verifies a non-2xx response surfaces as an error with
// the status and body, with no retries.
func TestAPIErrorIsFatal(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
	}))
	defer server.Close()

	_, err := testClient(server).ListIssues(context.Background(), "open")
	if err == nil {
		t.Fatal("ListIssues() should return error on 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error %q should mention the status code", err)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want exactly 1 (no retries)", calls)
	}
}

// TestCheckAuth verifies the auth check fetches the repository.
func TestCheckAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/repos/owner/repo") {
			t.Errorf("path = %q, want .../repos/owner/repo", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Repository{
			FullName:    "owner/repo",
			Permissions: &Permissions{Push: true, Pull: true},
		})
	}))
	defer server.Close()

	repo, err := testClient(server).CheckAuth(context.Background())
	if err != nil {
		t.Fatalf("CheckAuth() returned error: %v", err)
	}
	if repo.FullName != "owner/repo" {
		t.Errorf("FullName = %q, want owner/repo", repo.FullName)
	}
	if repo.Permissions == nil || !repo.Permissions.Push {
		t.Error("Permissions.Push = false, want true")
	}
}
