package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
	"github.com/DeinAlptraum/usdb-syncer/internal/httpclient"
)

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/audio"):
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("audio-bytes"))
		case strings.HasPrefix(r.URL.Path, "/cover.png"):
			// no content type, extension comes from the URL
			w.Write([]byte("image-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(httpclient.NewClient(srv.Client(), 0))
	dir := t.TempDir()

	path, err := f.Fetch(context.Background(), srv.URL+"/audio", domain.ResourceAudio,
		filepath.Join(dir, "Foo - Bar"))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if filepath.Base(path) != "Foo - Bar.mp3" {
		t.Errorf("Unexpected file name: %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "audio-bytes" {
		t.Errorf("Unexpected file content: %q (%v)", data, err)
	}

	path, err = f.Fetch(context.Background(), srv.URL+"/cover.png?size=big", domain.ResourceCover,
		filepath.Join(dir, "Foo - Bar [CO]"))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if filepath.Base(path) != "Foo - Bar [CO].png" {
		t.Errorf("Unexpected file name: %q", path)
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(httpclient.NewClient(srv.Client(), 0))
	if _, err := f.Fetch(ctx, srv.URL, domain.ResourceAudio, filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
