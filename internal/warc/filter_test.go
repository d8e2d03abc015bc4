package warc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRetainsMatches(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.warc.gz")
	out := filepath.Join(dir, "out.warc.gz")

	writeContainer(t, in,
		NewResponseRecord("https://example.com/privacy", httpPayload("privacy policy content")),
		NewResponseRecord("https://example.com/shop", httpPayload("buy our widgets")),
		NewResponseRecord("https://example.com/terms", httpPayload("terms of service")),
	)

	res, err := Filter(in, out, func(uri string, _ []byte) bool {
		return strings.Contains(uri, "privacy") || strings.Contains(uri, "terms")
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Matched)
	assert.True(t, res.OutputWritten)

	recs := readAll(t, out)
	require.Len(t, recs, 2)
	uris := []string{recs[0].TargetURI, recs[1].TargetURI}
	assert.Contains(t, uris, "https://example.com/privacy")
	assert.Contains(t, uris, "https://example.com/terms")
}

func TestFilterCopiesRecordsVerbatim(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.warc.gz")
	out := filepath.Join(dir, "out.warc.gz")

	payload := httpPayload("<html><body>legal notice</body></html>")
	writeContainer(t, in, NewResponseRecord("https://example.com/legal", payload))

	_, err := Filter(in, out, func(string, []byte) bool { return true })
	require.NoError(t, err)

	original := readAll(t, in)
	copied := readAll(t, out)
	require.Len(t, copied, 1)
	assert.Equal(t, original[0].header, copied[0].header)
	assert.Equal(t, original[0].Content, copied[0].Content)
}

func TestFilterDuplicateURIsRetainedOnce(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.warc.gz")
	out := filepath.Join(dir, "out.warc.gz")

	writeContainer(t, in,
		NewResponseRecord("https://example.com/privacy", httpPayload("first fetch")),
		NewResponseRecord("https://example.com/privacy", httpPayload("second fetch")),
	)

	res, err := Filter(in, out, func(string, []byte) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Matched)

	recs := readAll(t, out)
	require.Len(t, recs, 1)
	assert.Equal(t, []byte("first fetch"), recs[0].Body())
}

func TestFilterNoMatchesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.warc.gz")
	out := filepath.Join(dir, "out.warc.gz")

	writeContainer(t, in,
		NewResponseRecord("https://example.com/shop", httpPayload("widgets")),
	)

	res, err := Filter(in, out, func(string, []byte) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Zero(t, res.Matched)
	assert.False(t, res.OutputWritten)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFilterPredicateSeesBody(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.warc.gz")
	out := filepath.Join(dir, "out.warc.gz")

	writeContainer(t, in,
		NewResponseRecord("https://example.com/page1", httpPayload("contains magic token")),
		NewResponseRecord("https://example.com/page2", httpPayload("does not")),
	)

	res, err := Filter(in, out, func(_ string, body []byte) bool {
		return strings.Contains(string(body), "magic token")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)

	recs := readAll(t, out)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://example.com/page1", recs[0].TargetURI)
}
