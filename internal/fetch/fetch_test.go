package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ocr.json"), []byte(`{"code":0}`), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	f := &FileFetcher{Root: dir}
	ctx := context.Background()

	rc, err := f.Fetch(ctx, "ocr.json")
	if err != nil {
		t.Fatalf("Fetch(relative) error: %v", err)
	}
	if got := readAll(t, rc); got != `{"code":0}` {
		t.Errorf("body = %q", got)
	}

	rc, err = f.Fetch(ctx, "file://"+filepath.Join(dir, "ocr.json"))
	if err != nil {
		t.Fatalf("Fetch(file URL) error: %v", err)
	}
	readAll(t, rc)

	_, err = f.Fetch(ctx, "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFileFetcherCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&FileFetcher{}).Fetch(ctx, "anything"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tts.json":
			if r.Header.Get("Cache-Control") != "no-store" {
				http.Error(w, "cache header missing", http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"payload":{}}`))
		case "/broken.json":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	ctx := context.Background()

	rc, err := f.Fetch(ctx, srv.URL+"/tts.json")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got := readAll(t, rc); got != `{"payload":{}}` {
		t.Errorf("body = %q", got)
	}

	if _, err := f.Fetch(ctx, srv.URL+"/nope.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("404 error = %v, want ErrNotFound", err)
	}
	if _, err := f.Fetch(ctx, srv.URL+"/broken.json"); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestAutoDispatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("local"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	a := NewAuto(dir, time.Second)
	ctx := context.Background()

	rc, err := a.Fetch(ctx, srv.URL+"/x")
	if err != nil {
		t.Fatalf("remote fetch: %v", err)
	}
	if got := readAll(t, rc); got != "remote" {
		t.Errorf("remote body = %q", got)
	}

	rc, err = a.Fetch(ctx, "a.txt")
	if err != nil {
		t.Fatalf("local fetch: %v", err)
	}
	if got := readAll(t, rc); got != "local" {
		t.Errorf("local body = %q", got)
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"https://example.com/a.json", true},
		{"http://localhost:8080/a.json", true},
		{"file:///tmp/a.json", false},
		{"segments/a.json", false},
		{"/abs/a.json", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.ref); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}
