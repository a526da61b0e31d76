package stock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPexels_SearchVideo(t *testing.T) {
	var gotAuth, gotQuery, gotOrientation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		gotOrientation = r.URL.Query().Get("orientation")

		w.Write([]byte(`{"videos":[{"video_files":[
			{"link":"https://cdn.example/sd.mp4","quality":"sd","width":640},
			{"link":"https://cdn.example/hd.mp4","quality":"hd","width":1280}
		]}]}`))
	}))
	defer srv.Close()

	p := NewPexels("px-key", nil).WithBaseURL(srv.URL)

	url, err := p.SearchVideo(context.Background(), "ocean waves", "horizontal")
	if err != nil {
		t.Fatalf("SearchVideo() error = %v", err)
	}
	if url != "https://cdn.example/hd.mp4" {
		t.Errorf("url = %q, want the hd rendition", url)
	}
	if gotAuth != "px-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotQuery != "ocean waves" || gotOrientation != "horizontal" {
		t.Errorf("query = %q orientation = %q", gotQuery, gotOrientation)
	}
}

func TestPexels_NoResultsIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"videos":[]}`))
	}))
	defer srv.Close()

	p := NewPexels("px-key", nil).WithBaseURL(srv.URL)

	url, err := p.SearchVideo(context.Background(), "nothing matches this", "")
	if err != nil {
		t.Fatalf("SearchVideo() error = %v", err)
	}
	if url != "" {
		t.Errorf("url = %q, want empty for no results", url)
	}
}

func TestPexels_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewPexels("px-key", nil).WithBaseURL(srv.URL)

	if _, err := p.SearchVideo(context.Background(), "x", ""); err == nil {
		t.Error("SearchVideo() should surface a 429")
	}
}

func TestPexels_RequiresKey(t *testing.T) {
	p := NewPexels("", nil)
	if _, err := p.SearchVideo(context.Background(), "x", ""); err == nil {
		t.Error("SearchVideo() without a key should fail")
	}
}

func TestVerifyPexelsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "good-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"videos":[]}`))
	}))
	defer srv.Close()

	if err := VerifyPexelsKey(context.Background(), srv.URL, "good-key", srv.Client()); err != nil {
		t.Errorf("VerifyPexelsKey(good) error = %v", err)
	}
	if err := VerifyPexelsKey(context.Background(), srv.URL, "bad-key", srv.Client()); err == nil {
		t.Error("VerifyPexelsKey(bad) should fail")
	}
}

func TestPollinations_GenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewPollinations(nil).WithBaseURL(srv.URL)

	url, err := g.GenerateImage(context.Background(), "a misty forest at dawn", 1280, 720)
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	for _, want := range []string{"/prompt/", "width=1280", "height=720", "nologo=true", "seed="} {
		if !strings.Contains(url, want) {
			t.Errorf("url %q missing %q", url, want)
		}
	}

	// Same prompt, same URL: the seed is derived from the prompt.
	again, err := g.GenerateImage(context.Background(), "a misty forest at dawn", 1280, 720)
	if err != nil {
		t.Fatal(err)
	}
	if again != url {
		t.Errorf("urls differ for identical prompts:\n%s\n%s", url, again)
	}

	if _, err := g.GenerateImage(context.Background(), "", 1280, 720); err == nil {
		t.Error("GenerateImage() should reject an empty prompt")
	}
}

func TestPollinations_UnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	g := NewPollinations(nil).WithBaseURL(srv.URL)

	if _, err := g.GenerateImage(context.Background(), "x", 100, 100); err == nil {
		t.Error("GenerateImage() should fail on a 4xx probe")
	}
}
