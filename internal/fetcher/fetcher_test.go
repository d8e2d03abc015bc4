package fetcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:           baseURL,
		CrawlName:         "CC-MAIN-2025-08",
		ArchiveDir:        t.TempDir(),
		RequestsPerSecond: 1000,
		TimeoutSecs:       5,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{CrawlName: "x", ArchiveDir: t.TempDir()})
	assert.Error(t, err)
	_, err = NewClient(Config{BaseURL: "http://example.com", ArchiveDir: t.TempDir()})
	assert.Error(t, err)
}

func TestCrawlInfo(t *testing.T) {
	listing := "crawl-data/CC-MAIN-2025-08/segments/0/warc/seg-00000.warc.gz\n" +
		"crawl-data/CC-MAIN-2025-08/segments/0/warc/seg-00001.warc.gz\n" +
		"\n" +
		"crawl-data/CC-MAIN-2025-08/segments/0/warc/seg-00002.warc.gz\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crawl-data/CC-MAIN-2025-08/warc.paths.gz", r.URL.Path)
		_, _ = w.Write(gzipBytes(t, listing))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	crawl, err := c.CrawlInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CC-MAIN-2025-08", crawl.Name)
	require.Len(t, crawl.ArchivePaths, 3)
	assert.Equal(t, "crawl-data/CC-MAIN-2025-08/segments/0/warc/seg-00000.warc.gz", crawl.ArchivePaths[0])
}

func TestCrawlInfoCapsListing(t *testing.T) {
	listing := "a.warc.gz\nb.warc.gz\nc.warc.gz\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(gzipBytes(t, listing))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.cfg.MaxListedPaths = 2

	crawl, err := c.CrawlInfo(context.Background())
	require.NoError(t, err)
	assert.Len(t, crawl.ArchivePaths, 2)
}

func TestCrawlInfoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(gzipBytes(t, "seg.warc.gz\n"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.retry.InitialBackoff = 1
	c.retry.MaxBackoff = 1

	crawl, err := c.CrawlInfo(context.Background())
	require.NoError(t, err)
	assert.Len(t, crawl.ArchivePaths, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDownload(t *testing.T) {
	payload := []byte("fake archive bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crawl-data/seg-00000.warc.gz", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	local, err := c.Download(context.Background(), "crawl-data/seg-00000.warc.gz")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.cfg.ArchiveDir, "seg-00000.warc.gz"), local)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadReusesLocalCopy(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	local := filepath.Join(c.cfg.ArchiveDir, "seg.warc.gz")
	require.NoError(t, os.WriteFile(local, []byte("already here"), 0o644))

	got, err := c.Download(context.Background(), "crawl-data/seg.warc.gz")
	require.NoError(t, err)
	assert.Equal(t, local, got)
	assert.Zero(t, calls.Load(), "must not refetch an existing archive")

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, []byte("already here"), data)
}

func TestDownloadFailureLeavesNoPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Download(context.Background(), "crawl-data/missing.warc.gz")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(c.cfg.ArchiveDir, "missing.warc.gz"))
	assert.True(t, os.IsNotExist(statErr))
}
