package gitlab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gitlabapi "gitlab.com/gitlab-org/api/client-go"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantHost    string
		wantProject string
		wantErr     bool
	}{
		{
			name:        "https",
			url:         "https://gitlab.com/group/repo",
			wantHost:    "gitlab.com",
			wantProject: "group/repo",
		},
		{
			name:        "nested groups with .git",
			url:         "https://gitlab.com/group/subgroup/repo.git",
			wantHost:    "gitlab.com",
			wantProject: "group/subgroup/repo",
		},
		{
			name:        "ui path",
			url:         "https://gitlab.example.com/team/api/-/tree/main",
			wantHost:    "gitlab.example.com",
			wantProject: "team/api",
		},
		{
			name:        "scp form",
			url:         "git@gitlab.com:group/subgroup/repo.git",
			wantHost:    "gitlab.com",
			wantProject: "group/subgroup/repo",
		},
		{
			name:    "no project",
			url:     "https://gitlab.com/group",
			wantErr: true,
		},
		{
			name:    "not a URL",
			url:     "group/repo",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, project, err := parseRepoURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %q, want %q", host, tt.wantHost)
			}
			if project != tt.wantProject {
				t.Errorf("project = %q, want %q", project, tt.wantProject)
			}
		})
	}
}

func TestInspector_Matches(t *testing.T) {
	inspector := newInspector(nil, "https://gitlab.example.com")

	tests := []struct {
		url  string
		want bool
	}{
		{"https://gitlab.com/group/repo", true},
		{"https://gitlab.example.com/team/api.git", true},
		{"git@gitlab.example.com:team/api.git", true},
		{"https://github.com/owner/repo", false},
		{"https://gitlab.example.com/team", false},
	}

	for _, tt := range tests {
		if got := inspector.Matches(tt.url); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestInspector_Inspect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.EscapedPath(), "/projects/group%2Fsub%2Fapi") {
			t.Errorf("unexpected path %s", r.URL.EscapedPath())
		}
		if r.URL.Query().Get("statistics") != "true" {
			t.Errorf("expected statistics=true, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7, "default_branch": "trunk", "archived": false, "statistics": {"repository_size": 10485760}}`))
	}))
	defer server.Close()

	client, err := gitlabapi.NewClient("token", gitlabapi.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	inspector := newInspector(client, server.URL)

	info, err := inspector.Inspect(context.Background(), "https://gitlab.com/group/sub/api.git")
	if err != nil {
		t.Fatalf("Inspect() unexpected error: %v", err)
	}

	if info.Platform != "GitLab" || info.Owner != "group/sub" || info.Name != "api" {
		t.Errorf("unexpected identity: %+v", info)
	}
	if info.DefaultBranch != "trunk" {
		t.Errorf("DefaultBranch = %q, want trunk", info.DefaultBranch)
	}
	if info.SizeMB() != 10 {
		t.Errorf("SizeMB() = %v, want 10", info.SizeMB())
	}
}

func TestInspector_InspectNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "404 Project Not Found"}`))
	}))
	defer server.Close()

	client, err := gitlabapi.NewClient("token", gitlabapi.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = newInspector(client, server.URL).Inspect(context.Background(), "https://gitlab.com/group/missing")
	if err == nil {
		t.Fatal("Inspect() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to fetch GitLab project group/missing") {
		t.Errorf("unexpected error: %v", err)
	}
}
