package taiga

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeTaiga struct {
	mu        sync.Mutex
	authCalls int
	bodies    map[string]map[string]any
	headers   map[string]http.Header
	server    *httptest.Server
}

func newFakeTaiga(t *testing.T) *fakeTaiga {
	t.Helper()
	f := &fakeTaiga{bodies: map[string]map[string]any{}, headers: map[string]http.Header{}}
	mux := http.NewServeMux()

	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		body := f.record(t, r)
		f.mu.Lock()
		f.authCalls++
		f.mu.Unlock()
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"_error_message": "Username or password does not matches user."}`)
			return
		}
		io.WriteString(w, `{"auth_token": "tok-1", "id": 42}`)
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		io.WriteString(w, `{"id": 42, "username": "dev", "full_name": "Dev Eloper"}`)
	})
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"id": 9, "name": "New", "slug": "dev-new"}`)
			return
		}
		if r.URL.Query().Get("member") != "42" {
			t.Errorf("member = %q", r.URL.Query().Get("member"))
		}
		io.WriteString(w, `[{"id": 7, "name": "Shop", "slug": "dev-shop"}]`)
	})
	mux.HandleFunc("/projects/7", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		io.WriteString(w, `{"id": 7, "name": "Shop", "slug": "dev-shop", "members": [{"id": 42, "username": "dev", "full_name": "Dev Eloper"}]}`)
	})
	mux.HandleFunc("/projects/by_slug", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		if r.URL.Query().Get("slug") != "dev-shop" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"_error_message": "No Project matches the given query."}`)
			return
		}
		io.WriteString(w, `{"id": 7, "name": "Shop", "slug": "dev-shop"}`)
	})
	mux.HandleFunc("/userstories", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"id": 100, "ref": 1, "subject": "Epic: Documentation", "version": 1}`)
			return
		}
		io.WriteString(w, `[{"id": 100, "subject": "A", "assigned_to": null, "tags": [["git-commit", null], ["low-priority", "#fff"]]}]`)
	})
	mux.HandleFunc("/userstories/100", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		if r.Method == http.MethodPatch {
			io.WriteString(w, `{"id": 100, "assigned_to": 42, "version": 4}`)
			return
		}
		io.WriteString(w, `{"id": 100, "version": 3}`)
	})
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"id": 5, "subject": "t", "user_story": 100}`)
			return
		}
		io.WriteString(w, `[]`)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTaiga) record(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	key := r.Method + " " + r.URL.Path
	body := map[string]any{}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &body); err != nil {
				t.Errorf("%s: bad body %s", key, data)
			}
		}
	}
	f.mu.Lock()
	f.bodies[key] = body
	f.headers[key] = r.Header.Clone()
	f.mu.Unlock()
	return body
}

func (f *fakeTaiga) client(opts ...Option) *Client {
	return New(f.server.URL, Credentials{Username: "dev", Password: "secret"}, opts...)
}

func TestAuthenticate_CachesToken(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client()
	ctx := context.Background()

	if _, err := c.CurrentUser(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListProjects(ctx); err != nil {
		t.Fatal(err)
	}
	if f.authCalls != 1 {
		t.Fatalf("auth calls = %d, want 1", f.authCalls)
	}
	if got := f.headers["GET /users/me"].Get("Authorization"); got != "Bearer tok-1" {
		t.Fatalf("Authorization = %q", got)
	}
	if body := f.bodies["POST /auth"]; body["type"] != "normal" || body["username"] != "dev" {
		t.Fatalf("auth body = %v", body)
	}
	if c.Session().UserID() != 42 {
		t.Fatalf("user id = %d", c.Session().UserID())
	}
}

func TestAuthenticate_ReauthAfterExpiry(t *testing.T) {
	f := newFakeTaiga(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := f.client(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if _, err := c.CurrentUser(ctx); err != nil {
		t.Fatal(err)
	}
	now = now.Add(23 * time.Hour)
	if _, err := c.CurrentUser(ctx); err != nil {
		t.Fatal(err)
	}
	if f.authCalls != 1 {
		t.Fatalf("auth calls before expiry = %d", f.authCalls)
	}
	now = now.Add(2 * time.Hour)
	if c.Session().Valid() {
		t.Fatal("session should have expired")
	}
	if _, err := c.CurrentUser(ctx); err != nil {
		t.Fatal(err)
	}
	if f.authCalls != 2 {
		t.Fatalf("auth calls after expiry = %d", f.authCalls)
	}
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	f := newFakeTaiga(t)
	c := New(f.server.URL, Credentials{Username: "dev"})

	_, err := c.ListProjects(context.Background())
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
	if f.authCalls != 0 {
		t.Fatalf("auth calls = %d", f.authCalls)
	}
}

func TestAuthenticate_Rejected(t *testing.T) {
	f := newFakeTaiga(t)
	c := New(f.server.URL, Credentials{Username: "dev", Password: "wrong"})

	err := c.Authenticate(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || !strings.Contains(apiErr.Message, "does not matches") {
		t.Fatalf("apiErr = %+v", apiErr)
	}
	if c.Session().Valid() {
		t.Fatal("session should not be valid")
	}
}

func TestListProjects_DisablesPagination(t *testing.T) {
	f := newFakeTaiga(t)
	projects, err := f.client().ListProjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Slug != "dev-shop" {
		t.Fatalf("projects = %+v", projects)
	}
	if f.headers["GET /projects"].Get("x-disable-pagination") != "True" {
		t.Fatal("pagination header missing")
	}
}

func TestResolveProject(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client()
	ctx := context.Background()

	byID, err := c.ResolveProject(ctx, "7")
	if err != nil {
		t.Fatal(err)
	}
	if len(byID.Members) != 1 || byID.Members[0].FullName != "Dev Eloper" {
		t.Fatalf("members = %+v", byID.Members)
	}
	bySlug, err := c.ResolveProject(ctx, "dev-shop")
	if err != nil || bySlug.ID != 7 {
		t.Fatalf("by slug = %+v, %v", bySlug, err)
	}
	if _, err := c.ResolveProject(ctx, "nope"); err == nil || !strings.Contains(err.Error(), "No Project matches") {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateProject_DefaultTemplate(t *testing.T) {
	f := newFakeTaiga(t)
	p, err := f.client().CreateProject(context.Background(), NewProject{Name: "New"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 9 {
		t.Fatalf("project = %+v", p)
	}
	body := f.bodies["POST /projects"]
	if body["creation_template"] != float64(1) || body["is_private"] != false || body["description"] != "" {
		t.Fatalf("body = %v", body)
	}
}

func TestCreateUserStory_OmitsZeroFields(t *testing.T) {
	f := newFakeTaiga(t)
	_, err := f.client().CreateUserStory(context.Background(), NewUserStory{
		Project: 7,
		Subject: "Epic: Documentation",
		Tags:    []string{"epic-git-phase", "low-priority"},
	})
	if err != nil {
		t.Fatal(err)
	}
	body := f.bodies["POST /userstories"]
	if body["project"] != float64(7) || body["subject"] != "Epic: Documentation" {
		t.Fatalf("body = %v", body)
	}
	if _, ok := body["status"]; ok {
		t.Fatalf("zero status sent: %v", body)
	}
	if _, ok := body["assigned_to"]; ok {
		t.Fatalf("zero assignee sent: %v", body)
	}
}

func TestUserStories_DecodesTagPairs(t *testing.T) {
	f := newFakeTaiga(t)
	stories, err := f.client().UserStories(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(stories) != 1 || stories[0].AssignedTo != nil {
		t.Fatalf("stories = %+v", stories)
	}
	if strings.Join(stories[0].Tags, ",") != "git-commit,low-priority" {
		t.Fatalf("tags = %v", stories[0].Tags)
	}
}

func TestAssignUserStory_EchoesVersion(t *testing.T) {
	f := newFakeTaiga(t)
	us, err := f.client().AssignUserStory(context.Background(), 100, 42)
	if err != nil {
		t.Fatal(err)
	}
	if us.AssignedTo == nil || *us.AssignedTo != 42 {
		t.Fatalf("assigned = %v", us.AssignedTo)
	}
	body := f.bodies["PATCH /userstories/100"]
	if body["version"] != float64(3) || body["assigned_to"] != float64(42) {
		t.Fatalf("patch body = %v", body)
	}
}

func TestCreateTask(t *testing.T) {
	f := newFakeTaiga(t)
	task, err := f.client().CreateTask(context.Background(), NewTask{Project: 7, UserStory: 100, Subject: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if task.UserStory == nil || *task.UserStory != 100 {
		t.Fatalf("task = %+v", task)
	}
	if f.bodies["POST /tasks"]["user_story"] != float64(100) {
		t.Fatalf("body = %v", f.bodies["POST /tasks"])
	}
}

func TestProjectURL(t *testing.T) {
	if got := ProjectURL("dev-shop"); got != "https://tree.taiga.io/project/dev-shop/" {
		t.Fatalf("url = %q", got)
	}
}
