// Package crawler downloads candidate image URLs with bounded concurrency,
// filters them, removes near-duplicates, and orchestrates keyword crawls.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Jackmeson1/ocrdlp-lab/internal/dedup"
	"github.com/Jackmeson1/ocrdlp-lab/internal/imgfilter"
	"github.com/Jackmeson1/ocrdlp-lab/internal/phash"
)

// Downloader defaults.
const (
	DefaultMaxConcurrent = 10
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 1 * time.Second
	defaultFetchTimeout  = 30 * time.Second
)

// Outcome is the terminal state of one URL's download.
type Outcome int

const (
	OutcomeKept Outcome = iota
	OutcomeRejectedFilter
	OutcomeRejectedDuplicate
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeKept:
		return "kept"
	case OutcomeRejectedFilter:
		return "rejected_filter"
	case OutcomeRejectedDuplicate:
		return "rejected_duplicate"
	default:
		return "failed"
	}
}

// Stats counts terminal states across one Download call.
type Stats struct {
	Kept              int
	RejectedFilter    int
	RejectedDuplicate int
	Failed            int
}

// Total returns the number of URLs that reached a terminal state.
func (s Stats) Total() int {
	return s.Kept + s.RejectedFilter + s.RejectedDuplicate + s.Failed
}

// Downloader fetches image URLs into OutputDir. At most MaxConcurrent
// downloads are in flight at once; each failing URL is retried with a fixed
// delay and never aborts its siblings. Filter and Index are optional
// collaborators: nil skips the corresponding check.
type Downloader struct {
	OutputDir     string
	MaxConcurrent int
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgent     string
	Client        *http.Client
	Filter        *imgfilter.Filter
	Index         *dedup.Index
}

func (d *Downloader) defaults() {
	if d.MaxConcurrent <= 0 {
		d.MaxConcurrent = DefaultMaxConcurrent
	}
	if d.RetryAttempts <= 0 {
		d.RetryAttempts = DefaultRetryAttempts
	}
	if d.RetryDelay <= 0 {
		d.RetryDelay = DefaultRetryDelay
	}
	if d.UserAgent == "" {
		d.UserAgent = "Mozilla/5.0 (compatible; ocrdlp-lab/1.0)"
	}
	if d.Client == nil {
		d.Client = &http.Client{Timeout: defaultFetchTimeout}
	}
}

// Download fetches every URL and returns a mapping from source URL to local
// path for the files that survived filtering and deduplication; everything
// else is deleted from disk before return. Cancelling ctx stops new fetches;
// in-flight ones finish their current attempt.
func (d *Downloader) Download(ctx context.Context, urls []string) (map[string]string, Stats) {
	d.defaults()

	if err := os.MkdirAll(d.OutputDir, 0o750); err != nil {
		slog.Error("crawler: cannot create output directory", "dir", d.OutputDir, "error", err.Error())
		return nil, Stats{Failed: len(urls)}
	}

	results := make(map[string]string)
	var stats Stats
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.MaxConcurrent)

	for i, rawURL := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				mu.Lock()
				stats.Failed++
				mu.Unlock()
				return nil
			default:
			}

			localPath, outcome := d.downloadOne(ctx, rawURL, fmt.Sprintf("image_%06d", i))

			mu.Lock()
			switch outcome {
			case OutcomeKept:
				results[rawURL] = localPath
				stats.Kept++
			case OutcomeRejectedFilter:
				stats.RejectedFilter++
			case OutcomeRejectedDuplicate:
				stats.RejectedDuplicate++
			case OutcomeFailed:
				stats.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // per-URL failures are recorded in stats

	slog.Info("crawler: download batch finished",
		"total", len(urls),
		"kept", stats.Kept,
		"rejected_filter", stats.RejectedFilter,
		"rejected_duplicate", stats.RejectedDuplicate,
		"failed", stats.Failed)

	return results, stats
}

// downloadOne walks a single URL through fetch, save, filter and dedup.
// Rejected files are removed from disk before any success is recorded, so a
// partial write can never leak into the result mapping.
func (d *Downloader) downloadOne(ctx context.Context, rawURL, nameBase string) (string, Outcome) {
	data, contentType, ok := d.fetchWithRetry(ctx, rawURL)
	if !ok {
		return "", OutcomeFailed
	}

	localPath := filepath.Join(d.OutputDir, nameBase+resolveExt(contentType, rawURL))
	if err := os.WriteFile(localPath, data, 0o600); err != nil {
		slog.Error("crawler: write failed", "path", localPath, "error", err.Error())
		return "", OutcomeFailed
	}

	if d.Filter != nil && !d.Filter.IsValid(localPath) {
		removeFile(localPath)
		slog.Debug("crawler: rejected by filter", "url", rawURL)
		return "", OutcomeRejectedFilter
	}

	if d.Index != nil {
		fp, err := phash.FromFile(localPath)
		if err != nil {
			// Unable to hash: accept the image rather than lose it.
			slog.Warn("crawler: hash failed, skipping dedup", "path", localPath, "error", err.Error())
			return localPath, OutcomeKept
		}
		if d.Index.IsDuplicate(fp, localPath) {
			removeFile(localPath)
			slog.Debug("crawler: rejected as duplicate", "url", rawURL)
			return "", OutcomeRejectedDuplicate
		}
	}

	return localPath, OutcomeKept
}

// fetchWithRetry attempts the GET up to RetryAttempts times with a fixed
// inter-attempt delay. Definitive client errors (404/403/410) abandon
// immediately; transient failures (network errors, 5xx, 429) retry.
func (d *Downloader) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, string, bool) {
	for attempt := 1; attempt <= d.RetryAttempts; attempt++ {
		data, contentType, status, err := d.fetch(ctx, rawURL)
		if err == nil && status == http.StatusOK {
			return data, contentType, true
		}

		if !retryableFetch(ctx, status, err) {
			slog.Debug("crawler: definitive failure, not retrying",
				"url", rawURL, "status", status, "error", errString(err))
			return nil, "", false
		}
		if attempt == d.RetryAttempts {
			slog.Error("crawler: download failed after retries",
				"url", rawURL, "attempts", d.RetryAttempts, "status", status, "error", errString(err))
			return nil, "", false
		}

		select {
		case <-ctx.Done():
			return nil, "", false
		case <-time.After(d.RetryDelay):
		}
	}
	return nil, "", false
}

func (d *Downloader) fetch(ctx context.Context, rawURL string) ([]byte, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", 0, err
	}
	req.Header.Set("User-Agent", d.UserAgent)

	resp, err := d.Client.Do(req) //nolint:gosec // G704: URL comes from search results by design
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", resp.StatusCode, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", resp.StatusCode, err
	}
	return data, resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

// retryableFetch mirrors fetch.ShouldRetry but keeps the downloader's own
// state machine explicit: 404/403/410 are terminal, anything else non-200
// other than 5xx/429 is also terminal. Transport errors are retried while
// ctx is live; checking ctx rather than the error shape keeps per-request
// timeouts transient even when they unwrap to context.DeadlineExceeded.
func retryableFetch(ctx context.Context, status int, err error) bool {
	if err != nil {
		return ctx.Err() == nil
	}
	switch status {
	case http.StatusNotFound, http.StatusForbidden, http.StatusGone:
		return false
	}
	return status >= 500 || status == http.StatusTooManyRequests
}

// resolveExt derives the saved file's extension from the Content-Type
// header when recognized, else from the URL path, else ".jpg".
func resolveExt(contentType, rawURL string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg") || strings.Contains(ct, "jpg"):
		return ".jpg"
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "webp"):
		return ".webp"
	}

	if parsed, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(parsed.Path))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".webp":
			if ext == ".jpeg" {
				return ".jpg"
			}
			return ext
		}
	}
	return ".jpg"
}

func removeFile(path string) {
	if err := os.Remove(path); err != nil {
		slog.Error("crawler: cannot remove rejected file", "path", path, "error", err.Error())
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
