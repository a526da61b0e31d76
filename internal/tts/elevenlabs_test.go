package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
)

func TestElevenLabs_Synthesize(t *testing.T) {
	var requests atomic.Int32
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.Header.Get("xi-api-key") != "el-key" {
			t.Errorf("api key header = %q", r.Header.Get("xi-api-key"))
		}
		w.Write([]byte("fake mp3 bytes"))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	e := NewElevenLabs("el-key", cacheDir, nil, WithBaseURL(srv.URL))

	path, err := e.Synthesize(context.Background(), "Hello from the deep.", "voice-1")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading cached audio: %v", err)
	}
	if string(data) != "fake mp3 bytes" {
		t.Errorf("cached audio = %q", data)
	}

	// Second call for the same text and voice hits the cache, not the API.
	again, err := e.Synthesize(context.Background(), "Hello from the deep.", "voice-1")
	if err != nil {
		t.Fatalf("Synthesize() cached error = %v", err)
	}
	if again != path {
		t.Errorf("cache path changed: %q vs %q", again, path)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("api requests = %d, want 1", got)
	}

	// A different voice is a different cache entry.
	other, err := e.Synthesize(context.Background(), "Hello from the deep.", "voice-2")
	if err != nil {
		t.Fatal(err)
	}
	if other == path {
		t.Error("different voices must not share a cache entry")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"/text-to-speech/voice-1", "/text-to-speech/voice-2"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("request paths = %v, want %v", paths, want)
	}
}

func TestElevenLabs_SynthesizeErrors(t *testing.T) {
	e := NewElevenLabs("", t.TempDir(), nil)
	if _, err := e.Synthesize(context.Background(), "text", "v"); err == nil {
		t.Error("Synthesize() without a key should fail")
	}

	e = NewElevenLabs("el-key", t.TempDir(), nil)
	if _, err := e.Synthesize(context.Background(), "", "v"); err == nil {
		t.Error("Synthesize() with empty text should fail")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	e = NewElevenLabs("el-key", t.TempDir(), nil, WithBaseURL(srv.URL))
	if _, err := e.Synthesize(context.Background(), "text", "v"); err == nil {
		t.Error("Synthesize() should surface a provider error")
	}
}

func TestVerifyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "good" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"subscription":{}}`))
	}))
	defer srv.Close()

	if err := VerifyKey(context.Background(), srv.URL, "good", srv.Client()); err != nil {
		t.Errorf("VerifyKey(good) error = %v", err)
	}
	if err := VerifyKey(context.Background(), srv.URL, "bad", srv.Client()); err == nil {
		t.Error("VerifyKey(bad) should fail")
	}
}
