// Package fetch downloads interpreter release archives into the managed cache.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"pycors/internal/logx"
	"pycors/internal/platform"
	"pycors/internal/version"
)

const (
	DefaultMirror = "https://www.python.org/ftp/python"
	DefaultNuGet  = "https://api.nuget.org/v3-flatcontainer"

	userAgent = "pycors/1.0"
)

// Progress is reported while an archive streams in. Received never decreases
// across the lifetime of a single Fetch call, retries included.
type Progress struct {
	Version  version.Version
	Received int64
	Total    int64
}

// Options configures a Fetcher. Zero values fall back to defaults.
type Options struct {
	// CacheDir is the managed cache root; archives land in CacheDir/<os>-<arch>.
	CacheDir string
	Mirror   string
	NuGet    string
	Retries  int
	Timeout  time.Duration
	Client   *http.Client
	Logger   logx.Logger
	Progress func(Progress)

	// InitialBackoff is the first retry delay.
	InitialBackoff time.Duration
	// IndexTTL bounds how long an Available listing is reused.
	IndexTTL time.Duration
}

// Fetcher resolves download URLs and maintains the archive cache.
type Fetcher struct {
	opts   Options
	client *http.Client
	logger logx.Logger
	now    func() time.Time
}

// New builds a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Mirror == "" {
		opts.Mirror = DefaultMirror
	}
	if opts.NuGet == "" {
		opts.NuGet = DefaultNuGet
	}
	opts.Mirror = strings.TrimRight(opts.Mirror, "/")
	opts.NuGet = strings.TrimRight(opts.NuGet, "/")
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.IndexTTL <= 0 {
		opts.IndexTTL = time.Hour
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		opts:   opts,
		client: client,
		logger: logx.OrNop(opts.Logger),
		now:    time.Now,
	}
}

// DownloadFailedError reports an archive that could not be retrieved.
type DownloadFailedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *DownloadFailedError) Error() string {
	return fmt.Sprintf("download %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *DownloadFailedError) Unwrap() error { return e.Err }

// StatusError is an unexpected HTTP response status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status " + e.Status
}

// Transient reports whether retrying the request could succeed.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusRequestTimeout || e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// URL returns where the archive for v on p is published.
func (f *Fetcher) URL(v version.Version, p platform.Platform) string {
	if p.IsWindows() {
		tag := strings.ToLower(v.String())
		return fmt.Sprintf("%s/python/%s/python.%s.nupkg", f.opts.NuGet, tag, tag)
	}
	return fmt.Sprintf("%s/%d.%d.%d/Python-%s.tgz", f.opts.Mirror, v.Major(), v.Minor(), v.Patch(), v.PythonTag())
}

// CachePath is the cache location of the archive for v on p.
func (f *Fetcher) CachePath(v version.Version, p platform.Platform) string {
	return filepath.Join(f.opts.CacheDir, p.Key(), v.String()+"."+p.ArchiveExt())
}

func markerPath(archive string) string {
	return archive + ".sha256"
}

// Fetch returns the path of a verified cached archive for v, downloading it
// when the cache has no intact copy.
func (f *Fetcher) Fetch(ctx context.Context, v version.Version, p platform.Platform) (string, error) {
	dest := f.CachePath(v, p)
	if f.cached(dest) {
		f.logger.Debugf("cache hit for %s", dest)
		return dest, nil
	}

	downloadURL := f.URL(v, p)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("prepare cache directory: %w", err)
	}

	reporter := &progressReporter{version: v, report: f.opts.Progress}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.opts.InitialBackoff
	policy.MaxElapsedTime = 0
	bounded := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(f.opts.Retries)), ctx)

	attempts := 0
	var sum string
	operation := func() error {
		attempts++
		var err error
		sum, err = f.download(ctx, downloadURL, dest, reporter)
		return err
	}
	notify := func(err error, wait time.Duration) {
		f.logger.Warnf("download %s: %v; retrying in %s", downloadURL, err, wait.Round(time.Millisecond))
	}
	if err := backoff.RetryNotify(operation, bounded, notify); err != nil {
		return "", &DownloadFailedError{URL: downloadURL, Attempts: attempts, Err: err}
	}

	if err := writeFileAtomic(markerPath(dest), []byte(sum+"\n")); err != nil {
		return "", fmt.Errorf("write cache marker: %w", err)
	}
	f.logger.Infof("downloaded %s", downloadURL)
	return dest, nil
}

// Invalidate drops the cached archive for v so the next Fetch downloads again.
func (f *Fetcher) Invalidate(v version.Version, p platform.Platform) error {
	dest := f.CachePath(v, p)
	for _, path := range []string{markerPath(dest), dest} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("invalidate cache entry: %w", err)
		}
	}
	return nil
}

func (f *Fetcher) cached(dest string) bool {
	marker, err := os.ReadFile(markerPath(dest))
	if err != nil {
		return false
	}
	sum, err := computeChecksum(dest)
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(string(marker)), sum)
}

// download performs one attempt. Errors wrapped in backoff.Permanent stop
// the retry loop.
func (f *Fetcher) download(ctx context.Context, downloadURL, dest string, reporter *progressReporter) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode, Status: resp.Status}
		if statusErr.Transient() {
			return "", statusErr
		}
		return "", backoff.Permanent(statusErr)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "download-*.tmp")
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	hash := sha256.New()
	counter := reporter.attempt(resp.ContentLength)
	written, err := io.Copy(io.MultiWriter(tmpFile, hash, counter), resp.Body)
	if err != nil {
		tmpFile.Close()
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", fmt.Errorf("read body: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", backoff.Permanent(fmt.Errorf("close temp file: %w", err))
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return "", fmt.Errorf("short body: got %d of %d bytes: %w", written, resp.ContentLength, io.ErrUnexpectedEOF)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return "", backoff.Permanent(fmt.Errorf("finalize download: %w", err))
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

type progressReporter struct {
	version version.Version
	report  func(Progress)
	high    int64
}

func (r *progressReporter) attempt(total int64) io.Writer {
	return &countingWriter{reporter: r, total: total}
}

type countingWriter struct {
	reporter *progressReporter
	total    int64
	n        int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	r := w.reporter
	if r.report != nil && w.n > r.high {
		r.high = w.n
		r.report(Progress{Version: r.version, Received: w.n, Total: w.total})
	}
	return len(p), nil
}

func computeChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
