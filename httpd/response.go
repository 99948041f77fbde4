package httpd

import (
	"bytes"
	"fmt"
)

// The only status codes this server produces.
const (
	StatusOK       = 200
	StatusNotFound = 404
)

const (
	protoVersion = "HTTP/1.1"
	serverName   = "SimpleWeb Server"
)

var reasons = map[int]string{
	StatusOK:       "OK",
	StatusNotFound: "File not found",
}

// StatusText returns the reason phrase for a supported status code, "" for
// anything else. Callers must only pass supported codes.
func StatusText(code int) string {
	return reasons[code]
}

// BuildResponse serializes a response: status line, Content-Type and Server
// headers, one blank line, then the body verbatim. Lines are separated by
// bare newlines rather than CRLF, a deliberate simplification of HTTP/1.1.
func BuildResponse(c Content) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %d %s\n", protoVersion, c.Status, StatusText(c.Status))
	fmt.Fprintf(&b, "Content-Type: %s\n", c.Type)
	fmt.Fprintf(&b, "Server: %s\n", serverName)
	b.WriteByte('\n')
	b.Write(c.Body)
	return b.Bytes()
}
