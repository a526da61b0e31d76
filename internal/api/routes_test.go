package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/megastudio/studio-agent/internal/db"
	"github.com/megastudio/studio-agent/internal/studio"
)

const testToken = "test-token"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := studio.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), AuthTokenKey, testToken); err != nil {
		t.Fatalf("seeding auth token: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := studio.NewService(repo, nil, logger)

	router := NewRouter(ServerConfig{
		Studio:     svc,
		Repository: repo,
		Logger:     logger,
		StartTime:  time.Now(),
		DeviceID:   "dev-test",
		Version:    "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	srv := setupTestServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health HealthResponse
	decodeBody(t, resp, &health)
	if health.Status != "ok" || health.DeviceID != "dev-test" {
		t.Errorf("health = %+v", health)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestAuth(t *testing.T) {
	srv := setupTestServer(t)

	if resp := doRequest(t, srv, http.MethodGet, "/v1/status", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", resp.StatusCode)
	}
	if resp := doRequest(t, srv, http.MethodGet, "/v1/status", "wrong", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", resp.StatusCode)
	}
	if resp := doRequest(t, srv, http.MethodGet, "/v1/status", testToken, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("good token status = %d, want 200", resp.StatusCode)
	}
}

func TestAssembleEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/v1/assemble", testToken,
		AssembleRequest{Topic: "the deep sea", OutputFormat: "9:16", SceneCount: 3})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var accepted AssembleResponse
	decodeBody(t, resp, &accepted)
	if accepted.JobID == "" {
		t.Fatal("no job_id in response")
	}

	resp = doRequest(t, srv, http.MethodGet, "/v1/jobs/"+accepted.JobID, testToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("job status = %d, want 200", resp.StatusCode)
	}

	var job JobResponse
	decodeBody(t, resp, &job)
	if job.Status != string(studio.JobStatusPending) {
		t.Errorf("job status = %q, want pending", job.Status)
	}
}

func TestAssembleEndpoint_Validation(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name string
		req  AssembleRequest
	}{
		{"missing topic", AssembleRequest{OutputFormat: "16:9"}},
		{"bad format", AssembleRequest{Topic: "x", OutputFormat: "4:3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, srv, http.MethodPost, "/v1/assemble", testToken, tt.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestAssembleEndpoint_DefaultFormat(t *testing.T) {
	srv := setupTestServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/v1/assemble", testToken,
		AssembleRequest{Topic: "volcano islands"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
}

func TestProjectEndpoints(t *testing.T) {
	srv := setupTestServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/v1/projects/nope", testToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing project status = %d, want 404", resp.StatusCode)
	}

	resp = doRequest(t, srv, http.MethodGet, "/v1/projects", testToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list ProjectsResponse
	decodeBody(t, resp, &list)
	if len(list.Projects) != 0 {
		t.Errorf("projects = %d, want 0", len(list.Projects))
	}
}

func TestLibraryEndpoints(t *testing.T) {
	srv := setupTestServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/v1/library", testToken,
		SaveLibraryRequest{Type: "video", URL: "/cache/clip.mp4", Title: "Waves"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status = %d, want 201", resp.StatusCode)
	}

	resp = doRequest(t, srv, http.MethodGet, "/v1/library?type=video", testToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var lib LibraryResponse
	decodeBody(t, resp, &lib)
	if len(lib.Items) != 1 || lib.Items[0].Title != "Waves" {
		t.Errorf("library = %+v", lib)
	}
}

func TestProviderEndpoints(t *testing.T) {
	srv := setupTestServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/v1/providers/script/connect", testToken,
		ConnectProviderRequest{APIKey: "sk-test"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("connect status = %d", resp.StatusCode)
	}

	var cred ProviderResponse
	decodeBody(t, resp, &cred)
	if cred.Provider != "script" || !cred.Connected {
		t.Errorf("credential = %+v", cred)
	}

	resp = doRequest(t, srv, http.MethodPost, "/v1/providers/unknown/connect", testToken,
		ConnectProviderRequest{APIKey: "k"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown provider status = %d, want 400", resp.StatusCode)
	}

	resp = doRequest(t, srv, http.MethodDelete, "/v1/providers/script", testToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("disconnect status = %d, want 204", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/v1/status", testToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var status StatusResponse
	decodeBody(t, resp, &status)
	if status.State != "idle" {
		t.Errorf("state = %q, want idle", status.State)
	}
	if status.Recording {
		t.Error("recording should be false with no capture controller")
	}
}
