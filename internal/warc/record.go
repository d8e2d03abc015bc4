// Package warc reads, writes, and filters gzip-compressed WARC containers.
//
// Containers are append-only streams: records are read sequentially and
// retained records are copied byte-for-byte into a new container, preserving
// header blocks and digests other tooling depends on.
package warc

import (
	"bytes"
	"fmt"
)

// TypeResponse is the WARC-Type value for records carrying fetched payloads.
const TypeResponse = "response"

// Record is a single immutable WARC record. The header block and content are
// kept verbatim so a retained record can be re-serialized byte-identically.
type Record struct {
	// Type is the WARC-Type header value (lowercased).
	Type string
	// TargetURI is the WARC-Target-URI header value, empty when absent.
	TargetURI string
	// header is the raw header block: the version line through the blank
	// separator line, exactly as read.
	header []byte
	// Content is the record block, exactly Content-Length bytes.
	Content []byte
}

// Body returns the HTTP message body for response records: the content after
// the first blank line. Records without an HTTP header section return the
// full content.
func (r *Record) Body() []byte {
	if i := bytes.Index(r.Content, []byte("\r\n\r\n")); i >= 0 {
		return r.Content[i+4:]
	}
	if i := bytes.Index(r.Content, []byte("\n\n")); i >= 0 {
		return r.Content[i+2:]
	}
	return r.Content
}

// NewResponseRecord builds a response record for the given target URI wrapping
// an HTTP payload. Used by tests and tooling that synthesize containers.
func NewResponseRecord(targetURI string, httpPayload []byte) *Record {
	var h bytes.Buffer
	h.WriteString("WARC/1.0\r\n")
	h.WriteString("WARC-Type: response\r\n")
	fmt.Fprintf(&h, "WARC-Target-URI: %s\r\n", targetURI)
	h.WriteString("Content-Type: application/http; msgtype=response\r\n")
	fmt.Fprintf(&h, "Content-Length: %d\r\n", len(httpPayload))
	h.WriteString("\r\n")

	return &Record{
		Type:      TypeResponse,
		TargetURI: targetURI,
		header:    h.Bytes(),
		Content:   httpPayload,
	}
}
