package bridge

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
)

const (
	contentTypeText = "text/plain"
	contentTypeHTML = "text/html"
)

var (
	bodyOK    = []byte("OK")
	bodyError = []byte("ERROR")
)

// writeResponse writes a complete HTTP/1.0 response in a single write.
func writeResponse(w io.Writer, status int, contentType string, body []byte) error {
	var buf bytes.Buffer
	buf.Grow(96 + len(body))

	buf.WriteString("HTTP/1.0 ")
	buf.WriteString(strconv.Itoa(status))
	buf.WriteByte(' ')
	buf.WriteString(http.StatusText(status))
	buf.WriteString("\r\nContent-Type: ")
	buf.WriteString(contentType)
	buf.WriteString("\r\nContent-Length: ")
	buf.WriteString(strconv.Itoa(len(body)))
	buf.WriteString("\r\nConnection: close\r\n\r\n")
	buf.Write(body)

	_, err := w.Write(buf.Bytes())

	return err
}
