package warc

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpPayload(body string) []byte {
	return []byte("HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n" + body)
}

// writeContainer synthesizes a compressed container holding the given records.
func writeContainer(t *testing.T, path string, recs ...*Record) {
	t.Helper()
	w, err := Create(path)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, w.WriteRecord(rec))
	}
	require.NoError(t, w.Close())
}

func readAll(t *testing.T, path string) []*Record {
	t.Helper()
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	var out []*Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.warc.gz")
	writeContainer(t, path,
		NewResponseRecord("https://example.com/privacy", httpPayload("<html>privacy policy</html>")),
		NewResponseRecord("https://example.com/about", httpPayload("<html>about us</html>")),
	)

	recs := readAll(t, path)
	require.Len(t, recs, 2)
	assert.Equal(t, TypeResponse, recs[0].Type)
	assert.Equal(t, "https://example.com/privacy", recs[0].TargetURI)
	assert.Equal(t, []byte("<html>privacy policy</html>"), recs[0].Body())
	assert.Equal(t, "https://example.com/about", recs[1].TargetURI)
}

func TestBody(t *testing.T) {
	rec := NewResponseRecord("https://example.com/", httpPayload("body text"))
	assert.Equal(t, []byte("body text"), rec.Body())

	bare := &Record{Content: []byte("no http header here")}
	assert.Equal(t, []byte("no http header here"), bare.Body())

	lf := &Record{Content: []byte("Header: v\n\nlf body")}
	assert.Equal(t, []byte("lf body"), lf.Body())
}

func TestNextResponseSkipsOtherTypes(t *testing.T) {
	reqHeader := []byte("WARC/1.0\r\nWARC-Type: request\r\nWARC-Target-URI: https://example.com/\r\nContent-Length: 2\r\n\r\n")
	request := &Record{Type: "request", TargetURI: "https://example.com/", header: reqHeader, Content: []byte("hi")}

	path := filepath.Join(t.TempDir(), "mixed.warc.gz")
	writeContainer(t, path,
		request,
		NewResponseRecord("https://example.com/terms", httpPayload("terms of service")),
	)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	rec, err := r.NextResponse()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/terms", rec.TargetURI)

	_, err = r.NextResponse()
	assert.Equal(t, io.EOF, err)
}

func TestMalformedRecordSkipped(t *testing.T) {
	// A header block without Content-Length cannot be framed; the reader
	// resyncs on the next version line.
	badHeader := []byte("WARC/1.0\r\nWARC-Type: response\r\nWARC-Target-URI: https://bad.example.com/\r\n\r\n")
	bad := &Record{Type: TypeResponse, TargetURI: "https://bad.example.com/", header: badHeader, Content: nil}

	path := filepath.Join(t.TempDir(), "bad.warc.gz")
	writeContainer(t, path,
		bad,
		NewResponseRecord("https://good.example.com/legal", httpPayload("legal notice")),
	)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	rec, err := r.NextResponse()
	require.NoError(t, err)
	assert.Equal(t, "https://good.example.com/legal", rec.TargetURI)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.warc.gz"))
	assert.Error(t, err)
}

func TestWriterProducesPerRecordMembers(t *testing.T) {
	// Two records, read back independently, prove the multistream layout
	// survives the writer.
	path := filepath.Join(t.TempDir(), "multi.warc.gz")
	writeContainer(t, path,
		NewResponseRecord("https://a.example.com/", httpPayload("a")),
		NewResponseRecord("https://b.example.com/", httpPayload("b")),
	)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	recs := readAll(t, path)
	require.Len(t, recs, 2)
}
