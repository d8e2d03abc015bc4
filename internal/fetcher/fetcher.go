// Package fetcher lists and downloads web-archive segments from a
// CommonCrawl-style dataset host. Downloads are idempotent: a segment already
// on disk is reused, never re-fetched.
package fetcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/legalcrawl/internal/resilience"
)

// Crawl identifies a dataset and its ordered archive segment paths.
type Crawl struct {
	Name         string
	ArchivePaths []string
}

// Config configures the fetcher.
type Config struct {
	// BaseURL is the dataset host, e.g. https://data.commoncrawl.org.
	BaseURL string
	// CrawlName selects the dataset, e.g. CC-MAIN-2025-08.
	CrawlName string
	// ArchiveDir is where downloaded segments are stored and reused.
	ArchiveDir string
	// MaxListedPaths caps how many segment paths CrawlInfo returns.
	MaxListedPaths int
	// TimeoutSecs bounds each HTTP request. Listing and small downloads
	// finish well inside it; large segments stream under the same budget.
	TimeoutSecs int
	// RequestsPerSecond throttles requests against the dataset host.
	RequestsPerSecond float64
}

// Client fetches archive segments with rate limiting and retry.
type Client struct {
	cfg     Config
	httpc   *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a fetcher client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" || cfg.CrawlName == "" {
		return nil, eris.New("fetcher: base URL and crawl name are required")
	}
	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "fetcher: create archive directory")
	}
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 600
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.MaxListedPaths <= 0 {
		cfg.MaxListedPaths = 90000
	}
	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retry:   resilience.DefaultRetryConfig(),
	}, nil
}

// CrawlInfo fetches the dataset's segment listing (warc.paths.gz) and returns
// the ordered archive paths, capped at MaxListedPaths.
func (c *Client) CrawlInfo(ctx context.Context) (*Crawl, error) {
	listURL := fmt.Sprintf("%s/crawl-data/%s/warc.paths.gz", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.CrawlName)

	var paths []string
	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.get(ctx, listURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck

		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return eris.Wrap(err, "fetcher: decompress segment listing")
		}
		defer gz.Close() //nolint:errcheck

		paths = paths[:0]
		scanner := bufio.NewScanner(gz)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			paths = append(paths, line)
			if len(paths) >= c.cfg.MaxListedPaths {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			return eris.Wrap(err, "fetcher: read segment listing")
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: crawl info")
	}

	zap.L().Info("crawl listing fetched",
		zap.String("crawl", c.cfg.CrawlName),
		zap.Int("segments", len(paths)),
	)
	return &Crawl{Name: c.cfg.CrawlName, ArchivePaths: paths}, nil
}

// Download fetches one archive segment into the archive directory and returns
// the local path. An existing local copy is reused. A failed download leaves
// no partial file behind.
func (c *Client) Download(ctx context.Context, archivePath string) (string, error) {
	local := filepath.Join(c.cfg.ArchiveDir, filepath.Base(archivePath))
	if info, err := os.Stat(local); err == nil && info.Size() > 0 {
		zap.L().Info("archive already local, reusing",
			zap.String("archive", filepath.Base(archivePath)),
			zap.Int64("bytes", info.Size()),
		)
		return local, nil
	}

	segURL := fmt.Sprintf("%s/%s", strings.TrimRight(c.cfg.BaseURL, "/"), strings.TrimLeft(archivePath, "/"))

	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.get(ctx, segURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck

		f, err := os.Create(local)
		if err != nil {
			return eris.Wrap(err, "fetcher: create local archive")
		}
		n, err := io.Copy(f, resp.Body)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(local)
			return resilience.NewTransientError(eris.Wrap(err, "fetcher: stream archive"), 0)
		}
		zap.L().Info("archive downloaded",
			zap.String("archive", filepath.Base(archivePath)),
			zap.Int64("bytes", n),
		)
		return nil
	})
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("fetcher: download %s", archivePath))
	}
	return local, nil
}

// get issues one request and classifies retryable status codes.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: build request")
	}
	req.Header.Set("User-Agent", "legalcrawl/1.0")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		resp.Body.Close() //nolint:errcheck
		return nil, resilience.NewTransientError(
			eris.New(fmt.Sprintf("fetcher: status %d from %s", resp.StatusCode, url)), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck
		return nil, eris.New(fmt.Sprintf("fetcher: status %d from %s", resp.StatusCode, url))
	}
	return resp, nil
}
