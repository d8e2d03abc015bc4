package warc

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/rotisserie/eris"
)

// Writer appends records to a compressed WARC container. Each record is
// written as its own gzip member, the layout archive tooling expects, with
// the header block and content copied verbatim.
type Writer struct {
	w io.Writer
	f *os.File
}

// NewWriter writes records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Create creates a new container file at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrap(err, "warc: create container")
	}
	return &Writer{w: f, f: f}, nil
}

// WriteRecord appends rec verbatim: version line, header block, content, and
// the record separator.
func (w *Writer) WriteRecord(rec *Record) error {
	gz := gzip.NewWriter(w.w)
	if _, err := gz.Write(rec.header); err != nil {
		return eris.Wrap(err, "warc: write record header")
	}
	if _, err := gz.Write(rec.Content); err != nil {
		return eris.Wrap(err, "warc: write record content")
	}
	if _, err := gz.Write([]byte("\r\n\r\n")); err != nil {
		return eris.Wrap(err, "warc: write record separator")
	}
	if err := gz.Close(); err != nil {
		return eris.Wrap(err, "warc: flush record")
	}
	return nil
}

// Close flushes and closes the underlying file, if any.
func (w *Writer) Close() error {
	if w.f != nil {
		return w.f.Close()
	}
	return nil
}
