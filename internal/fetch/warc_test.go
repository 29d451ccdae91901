package fetch

import (
	"bytes"
	"compress/gzip"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildWARC(t *testing.T, httpBody string) []byte {
	t.Helper()
	httpPayload := "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n" + httpBody

	var buf bytes.Buffer
	buf.WriteString("WARC/1.0\r\n")
	buf.WriteString("WARC-Type: response\r\n")
	buf.WriteString("WARC-Date: 2024-01-15T12:00:00Z\r\n")
	buf.WriteString("Content-Length: " + strconv.Itoa(len(httpPayload)) + "\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(httpPayload)
	buf.WriteString("\r\n\r\n")
	return buf.Bytes()
}

func TestDecompressFallsBackToRaw(t *testing.T) {
	raw := []byte("not actually gzip data")
	require.Equal(t, raw, decompress(raw))

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write([]byte("hello world"))
	require.NoError(t, w.Close())
	require.Equal(t, []byte("hello world"), decompress(buf.Bytes()))
}

func TestFirstResponseRecord(t *testing.T) {
	warc := buildWARC(t, "<html><body><p>hola</p></body></html>")

	rec, err := firstResponseRecord(warc)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "response", rec.recType)
	require.Equal(t, "2024-01-15T12:00:00Z", rec.date)

	body, err := httpBodyFromPayload(rec.payload)
	require.NoError(t, err)
	require.Contains(t, string(body), "hola")
}

func TestFirstResponseRecordNoMatch(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("WARC/1.0\r\n")
	buf.WriteString("WARC-Type: request\r\n")
	buf.WriteString("Content-Length: 0\r\n")
	buf.WriteString("\r\n")
	buf.WriteString("\r\n\r\n")

	rec, err := firstResponseRecord(buf.Bytes())
	require.NoError(t, err)
	require.Nil(t, rec)
}
