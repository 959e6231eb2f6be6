package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pycors/internal/platform"
	"pycors/internal/version"
)

var linux = platform.Platform{OS: "linux", Arch: "amd64"}

func newTestFetcher(t *testing.T, server *httptest.Server, retries int) *Fetcher {
	t.Helper()
	return New(Options{
		CacheDir:       t.TempDir(),
		Mirror:         server.URL + "/ftp/python/",
		NuGet:          server.URL + "/nuget",
		Retries:        retries,
		Client:         server.Client(),
		InitialBackoff: time.Millisecond,
	})
}

func TestURL(t *testing.T) {
	f := New(Options{})
	v := version.MustParse("3.7.2")
	if got := f.URL(v, linux); got != "https://www.python.org/ftp/python/3.7.2/Python-3.7.2.tgz" {
		t.Fatalf("unix url = %s", got)
	}
	rc := version.MustParse("3.13.0-rc1")
	if got := f.URL(rc, linux); got != "https://www.python.org/ftp/python/3.13.0/Python-3.13.0rc1.tgz" {
		t.Fatalf("pre-release url = %s", got)
	}
	win := platform.Platform{OS: "windows", Arch: "amd64"}
	if got := f.URL(v, win); got != "https://api.nuget.org/v3-flatcontainer/python/3.7.2/python.3.7.2.nupkg" {
		t.Fatalf("windows url = %s", got)
	}
	if got := f.CachePath(v, win); filepath.Base(got) != "3.7.2.zip" || filepath.Base(filepath.Dir(got)) != "windows-amd64" {
		t.Fatalf("windows cache path = %s", got)
	}
}

func TestFetchDownloadsAndCaches(t *testing.T) {
	payload := strings.Repeat("python source ", 4096)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/ftp/python/3.7.2/Python-3.7.2.tgz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	f := newTestFetcher(t, server, 2)
	var last int64
	f.opts.Progress = func(p Progress) {
		if p.Received <= last {
			t.Errorf("progress went from %d to %d", last, p.Received)
		}
		last = p.Received
	}

	v := version.MustParse("3.7.2")
	path, err := f.Fetch(context.Background(), v, linux)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != payload {
		t.Fatalf("unexpected archive content (err %v)", err)
	}
	if last != int64(len(payload)) {
		t.Fatalf("final progress %d, want %d", last, len(payload))
	}
	if _, err := os.Stat(markerPath(path)); err != nil {
		t.Fatalf("marker missing: %v", err)
	}

	if _, err := f.Fetch(context.Background(), v, linux); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected cache hit on second fetch, server saw %d requests", hits.Load())
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("archive"))
	}))
	defer server.Close()

	f := newTestFetcher(t, server, 3)
	if _, err := f.Fetch(context.Background(), version.MustParse("3.6.8"), linux); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits.Load())
	}
}

func TestFetchPermanentFailureStopsImmediately(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := newTestFetcher(t, server, 5)
	_, err := f.Fetch(context.Background(), version.MustParse("3.6.9"), linux)
	var failed *DownloadFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected DownloadFailedError, got %v", err)
	}
	if failed.Attempts != 1 || hits.Load() != 1 {
		t.Fatalf("404 should not be retried: attempts %d, hits %d", failed.Attempts, hits.Load())
	}
	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusNotFound {
		t.Fatalf("expected wrapped 404, got %v", err)
	}
	assertNoArchives(t, f)
}

func TestFetchExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := newTestFetcher(t, server, 2)
	_, err := f.Fetch(context.Background(), version.MustParse("3.7.2"), linux)
	var failed *DownloadFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected DownloadFailedError, got %v", err)
	}
	if failed.Attempts != 3 || hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d (hits %d)", failed.Attempts, hits.Load())
	}
	if !strings.Contains(failed.URL, "/3.7.2/Python-3.7.2.tgz") {
		t.Fatalf("unexpected url %s", failed.URL)
	}
	assertNoArchives(t, f)
}

func TestFetchShortBodyLeavesNoPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("truncated"))
	}))
	defer server.Close()

	f := newTestFetcher(t, server, 1)
	_, err := f.Fetch(context.Background(), version.MustParse("3.7.2"), linux)
	var failed *DownloadFailedError
	if !errors.As(err, &failed) || failed.Attempts != 2 {
		t.Fatalf("expected retried DownloadFailedError, got %v", err)
	}
	assertNoArchives(t, f)
}

func TestFetchRedownloadsCorruptCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("good archive"))
	}))
	defer server.Close()

	f := newTestFetcher(t, server, 0)
	v := version.MustParse("3.7.2")
	path, err := f.Fetch(context.Background(), v, linux)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := os.WriteFile(path, []byte("good arch"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(context.Background(), v, linux); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("corrupt cache entry should be re-downloaded, hits %d", hits.Load())
	}

	if err := f.Invalidate(v, linux); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("archive should be gone: %v", err)
	}
	if err := f.Invalidate(v, linux); err != nil {
		t.Fatalf("invalidate is idempotent: %v", err)
	}
}

func TestFetchCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newTestFetcher(t, server, 10)
	f.opts.InitialBackoff = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	f.opts.Progress = nil
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := f.Fetch(ctx, version.MustParse("3.7.2"), linux)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("cancellation did not interrupt backoff")
	}
	assertNoArchives(t, f)
}

func assertNoArchives(t *testing.T, f *Fetcher) {
	t.Helper()
	dir := filepath.Join(f.opts.CacheDir, linux.Key())
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected empty cache dir, found %v", names)
	}
}
