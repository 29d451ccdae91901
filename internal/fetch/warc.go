package fetch

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// decompress interprets body as gzip, falling back to the raw bytes on
// decode failure — some archive segments are stored uncompressed.
func decompress(body []byte) []byte {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return body
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil || len(out) == 0 {
		return body
	}
	return out
}

// warcRecord is the minimal subset of a WARC record this pipeline needs:
// its type, its WARC-Date header, and its payload (for a "response"
// record, a nested HTTP message).
type warcRecord struct {
	recType string
	date    string
	payload []byte
}

// firstResponseRecord scans stream for the first record of type
// "response" and returns it. The archive segment is small enough (a
// handful of records per byte-range fetch) that parsing the format
// directly is simpler than pulling in a WARC library: a record is a
// header block (CRLF-terminated lines, blank line to end) followed by
// exactly Content-Length bytes of payload, followed by a blank-line
// separator before the next record.
func firstResponseRecord(stream []byte) (*warcRecord, error) {
	r := bufio.NewReader(bytes.NewReader(stream))
	tp := textproto.NewReader(r)

	for {
		statusLine, err := tp.ReadLine()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: warc status line: %v", domain.ErrParse, err)
		}
		if statusLine == "" {
			continue
		}
		if !strings.HasPrefix(statusLine, "WARC/") {
			return nil, fmt.Errorf("%w: unexpected warc record start %q", domain.ErrParse, statusLine)
		}

		header, err := tp.ReadMIMEHeader()
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: warc header: %v", domain.ErrParse, err)
		}

		contentLength, _ := strconv.Atoi(header.Get("Content-Length"))
		payload := make([]byte, contentLength)
		if contentLength > 0 {
			if _, err := io.ReadFull(r, payload); err != nil {
				return nil, fmt.Errorf("%w: warc payload: %v", domain.ErrParse, err)
			}
		}
		// Consume the blank-line record separator, if present.
		_, _ = tp.ReadLine()

		recType := header.Get("Warc-Type")
		if recType == "response" {
			return &warcRecord{
				recType: recType,
				date:    header.Get("Warc-Date"),
				payload: payload,
			}, nil
		}
	}
}

// httpBodyFromPayload parses a WARC response record's payload as a
// nested HTTP message and returns its body.
func httpBodyFromPayload(payload []byte) ([]byte, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(payload)), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: nested http response: %v", domain.ErrParse, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: nested http body: %v", domain.ErrParse, err)
	}
	return body, nil
}
