package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	appLog "eventcal/internal/log"
)

// Fetcher downloads ICS feeds, revalidating with ETag / Last-Modified
// against a disk cache when cacheDir is set.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// cacheMeta is stored next to the cached body of one feed URL.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewFetcher creates a Fetcher. An empty cacheDir disables caching; a nil
// client gets a 15s timeout.
func NewFetcher(client *http.Client, cacheDir string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// Fetch returns the feed body and whether it came from the cache (304, or
// a network failure with a cached copy available).
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]byte, bool, error) {
	if feedURL == "" {
		return nil, false, errors.New("feed URL is empty")
	}

	cachePath := f.cachePath(feedURL)
	var meta cacheMeta
	var cached []byte
	if cachePath != "" {
		meta, _ = loadMeta(cachePath)
		cached, _ = os.ReadFile(filepath.Join(cachePath, "body.ics"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, false, err
	}
	if len(cached) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cached) > 0 {
			appLog.Error("ics fetch failed, using cached body", err, "url", redactURL(feedURL))
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("fetch %s: %w", redactURL(feedURL), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, err
		}
		if cachePath != "" {
			meta = cacheMeta{
				URL:          feedURL,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
				UpdatedAt:    time.Now().UTC(),
			}
			if err := saveCache(cachePath, meta, body); err != nil {
				// Log but still return the freshly fetched body.
				appLog.Error("ics cache save failed", err, "url", redactURL(feedURL))
			}
		}
		appLog.Debug("ics fetch success", "url", redactURL(feedURL), "bytes", len(body))
		return body, false, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return nil, false, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Debug("ics fetch not modified; using cache", "url", redactURL(feedURL))
		return cached, true, nil

	default:
		if len(cached) > 0 {
			appLog.Error("ics fetch non-OK, using cached body", errors.New(resp.Status), "url", redactURL(feedURL))
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("fetch %s: %s", redactURL(feedURL), resp.Status)
	}
}

// cachePath is a per-URL directory under cacheDir, or "" without a cache.
func (f *Fetcher) cachePath(feedURL string) string {
	if f.cacheDir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(feedURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(cachePath string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

func saveCache(cachePath string, meta cacheMeta, body []byte) error {
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return err
	}
	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only; feed URLs often embed secrets.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
