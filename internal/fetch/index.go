package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"pycors/internal/platform"
	"pycors/internal/version"
)

const indexCacheVersion = 1

type indexCache struct {
	Schema    int       `json:"schema"`
	Source    string    `json:"source"`
	Versions  []string  `json:"versions"`
	FetchedAt time.Time `json:"fetched_at"`
}

type nugetIndex struct {
	Versions []string `json:"versions"`
}

var mirrorDirRegex = regexp.MustCompile(`href="(\d+\.\d+\.\d+)/"`)

// Available lists the versions published for p, newest last. Listings are
// memoized in the cache directory for IndexTTL.
func (f *Fetcher) Available(ctx context.Context, p platform.Platform) ([]version.Version, error) {
	source := f.indexURL(p)
	cachePath := filepath.Join(f.opts.CacheDir, "index-"+p.Key()+".json")

	if cached, ok := f.loadIndex(cachePath, source); ok {
		return cached, nil
	}

	body, err := f.getIndex(ctx, source)
	if err != nil {
		return nil, err
	}

	var raw []string
	if p.IsWindows() {
		var idx nugetIndex
		if err := json.Unmarshal(body, &idx); err != nil {
			return nil, fmt.Errorf("decode %s: %w", source, err)
		}
		raw = idx.Versions
	} else {
		for _, m := range mirrorDirRegex.FindAllSubmatch(body, -1) {
			raw = append(raw, string(m[1]))
		}
	}

	versions := parseVersions(raw)
	f.saveIndex(cachePath, source, versions)
	return versions, nil
}

func (f *Fetcher) indexURL(p platform.Platform) string {
	if p.IsWindows() {
		return f.opts.NuGet + "/python/index.json"
	}
	return f.opts.Mirror + "/"
}

func (f *Fetcher) getIndex(ctx context.Context, source string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("query %s: %w", source, &StatusError{Code: resp.StatusCode, Status: resp.Status})
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return body, nil
}

func parseVersions(raw []string) []version.Version {
	seen := map[string]bool{}
	var out []version.Version
	for _, s := range raw {
		v, err := version.ParseVersion(s)
		if err != nil {
			v, err = version.FromPython(s)
			if err != nil {
				continue
			}
		}
		if seen[v.String()] {
			continue
		}
		seen[v.String()] = true
		out = append(out, v)
	}
	version.Sort(out)
	return out
}

func (f *Fetcher) loadIndex(path, source string) ([]version.Version, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var cache indexCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, false
	}
	if cache.Schema != indexCacheVersion || cache.Source != source {
		return nil, false
	}
	if f.now().Sub(cache.FetchedAt) > f.opts.IndexTTL {
		return nil, false
	}
	return parseVersions(cache.Versions), true
}

func (f *Fetcher) saveIndex(path, source string, versions []version.Version) {
	cache := indexCache{
		Schema:    indexCacheVersion,
		Source:    source,
		FetchedAt: f.now(),
	}
	for _, v := range versions {
		cache.Versions = append(cache.Versions, v.String())
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	if err := writeFileAtomic(path, data); err != nil {
		f.logger.Debugf("save index cache: %v", err)
	}
}
