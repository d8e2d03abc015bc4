package warc

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rotisserie/eris"
)

// Reader decodes a compressed WARC container into a lazy, finite,
// non-restartable sequence of records. Malformed individual records are
// skipped by resynchronizing on the next version line.
type Reader struct {
	br     *bufio.Reader
	gz     *gzip.Reader
	closer io.Closer
}

// NewReader wraps an already-decompressed or raw gzip stream. Multistream
// containers (one gzip member per record, the common WARC layout) are handled
// transparently by the gzip reader.
func NewReader(r io.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "warc: open gzip stream")
	}
	return &Reader{br: bufio.NewReaderSize(gz, 64*1024), gz: gz}, nil
}

// Open opens a compressed WARC container from disk.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "warc: open container")
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if err := r.gz.Close(); err != nil && r.closer == nil {
		return err
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Next returns the next record in the container, or io.EOF at the end.
// Records whose header block cannot be parsed are silently skipped.
func (r *Reader) Next() (*Record, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimRight(line, "\r\n")) == 0 {
			continue
		}
		if !bytes.HasPrefix(line, []byte("WARC/")) {
			// Not at a record boundary: resync on the next version line.
			continue
		}

		rec, err := r.readRecord(line)
		if err == errMalformed {
			continue
		}
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
}

// NextResponse returns the next content-bearing record: a response record
// with a non-empty target URI and non-empty content. Returns io.EOF at the
// end of the container.
func (r *Reader) NextResponse() (*Record, error) {
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec.Type == TypeResponse && rec.TargetURI != "" && len(rec.Content) > 0 {
			return rec, nil
		}
	}
}

var errMalformed = eris.New("warc: malformed record")

// readRecord parses one record given its already-consumed version line.
func (r *Reader) readRecord(versionLine []byte) (*Record, error) {
	var header bytes.Buffer
	header.Write(versionLine)

	rec := &Record{}
	contentLength := -1

	for {
		line, err := r.readLine()
		if err == io.EOF {
			return nil, errMalformed
		}
		if err != nil {
			return nil, err
		}
		header.Write(line)

		trimmed := bytes.TrimRight(line, "\r\n")
		if len(trimmed) == 0 {
			break
		}

		name, value, ok := splitHeader(string(trimmed))
		if !ok {
			continue
		}
		switch strings.ToLower(name) {
		case "warc-type":
			rec.Type = strings.ToLower(value)
		case "warc-target-uri":
			rec.TargetURI = strings.Trim(value, "<>")
		case "content-length":
			n, convErr := strconv.Atoi(value)
			if convErr != nil || n < 0 {
				return nil, errMalformed
			}
			contentLength = n
		}
	}

	if contentLength < 0 {
		return nil, errMalformed
	}

	rec.header = append([]byte(nil), header.Bytes()...)
	rec.Content = make([]byte, contentLength)
	if _, err := io.ReadFull(r.br, rec.Content); err != nil {
		return nil, errMalformed
	}
	return rec, nil
}

// readLine reads one header line including its terminator.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		return line, nil
	}
	if err != nil {
		return nil, err
	}
	return line, nil
}

func splitHeader(line string) (name, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}
