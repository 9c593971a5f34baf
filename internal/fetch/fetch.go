package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotFound = errors.New("asset not found")

// interface for loading an asset referenced by path or URL
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (io.ReadCloser, error)
}

// reads assets from the local filesystem; relative refs resolve against Root
type FileFetcher struct {
	Root string
}

func (f *FileFetcher) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(path) && f.Root != "" {
		path = filepath.Join(f.Root, path)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}

// fetches assets over HTTP, bypassing caches
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", ref, err)
	}
	req.Header.Set("Cache-Control", "no-store")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", ref, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %d", ref, resp.StatusCode)
	}

	return resp.Body, nil
}

// dispatches on the ref's scheme: http(s) goes to HTTP, everything else to File
type Auto struct {
	File *FileFetcher
	HTTP *HTTPFetcher
}

func NewAuto(root string, timeout time.Duration) *Auto {
	return &Auto{
		File: &FileFetcher{Root: root},
		HTTP: NewHTTPFetcher(timeout),
	}
}

func (a *Auto) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	if IsRemote(ref) {
		return a.HTTP.Fetch(ctx, ref)
	}
	return a.File.Fetch(ctx, ref)
}

func IsRemote(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
