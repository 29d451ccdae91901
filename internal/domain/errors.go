package domain

import "errors"

// Error taxonomy (kinds, not types). Callers classify with errors.Is
// against these sentinels rather than matching strings.
var (
	// ErrTransport covers HTTP/network failures talking to an archive,
	// portal, or CDX endpoint.
	ErrTransport = errors.New("transport error")
	// ErrProtocol covers non-2xx responses or malformed response shape.
	ErrProtocol = errors.New("protocol error")
	// ErrParse covers an unexpected record shape (a single CDX line, a
	// WARC record, an HTML document).
	ErrParse = errors.New("parse error")
	// ErrCoordination covers the coordination store being unreachable.
	ErrCoordination = errors.New("coordination store unreachable")
	// ErrData covers a missing or empty external data file (historical
	// index table, index catalog).
	ErrData = errors.New("data error")
)
