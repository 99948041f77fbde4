package httpd

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRequest is returned when the received bytes cannot be parsed
// into a request: a request line with the wrong number of tokens, or a
// header line without a colon.
var ErrMalformedRequest = errors.New("malformed request")

// Request is one parsed client request. It is immutable after ParseRequest.
type Request struct {
	Method  string
	Path    string
	Version string

	headers map[string]string
}

// ParseRequest parses the raw bytes received from one connection.
//
// Input is split on newlines; blank lines are discarded, so the parser
// accepts both bare-\n and \r\n framing. The first line must hold exactly
// three tokens (method, path, version). A path ending in "/" gets
// "index.html" appended before it is stored.
func ParseRequest(data []byte) (*Request, error) {
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty request", ErrMalformedRequest)
	}

	tokens := strings.Fields(lines[0])
	if len(tokens) != 3 {
		return nil, fmt.Errorf("%w: request line %q", ErrMalformedRequest, lines[0])
	}
	req := &Request{
		Method:  tokens[0],
		Path:    tokens[1],
		Version: tokens[2],
		headers: make(map[string]string),
	}
	if strings.HasSuffix(req.Path, "/") {
		req.Path += "index.html"
	}

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: header line %q", ErrMalformedRequest, line)
		}
		req.headers[headerKey(name)] = strings.TrimSpace(value)
	}
	return req, nil
}

// headerKey maps a semantic or wire header name onto the canonical lookup
// key: lowercased, spaces and underscores turned into hyphens. Both storage
// and lookup go through it, so "User-Agent", "USER-AGENT" and "user agent"
// all address the same entry.
func headerKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	return strings.ReplaceAll(name, "_", "-")
}

// Header looks up a header by semantic name. Unknown names report ok=false
// rather than falling back to anything implicit.
func (r *Request) Header(name string) (value string, ok bool) {
	value, ok = r.headers[headerKey(name)]
	return value, ok
}

// UserAgent returns the User-Agent header, or "" if the client sent none.
func (r *Request) UserAgent() string {
	ua, _ := r.Header("user agent")
	return ua
}
