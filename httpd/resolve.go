package httpd

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// DefaultNotFoundBody is the body sent for unresolved paths unless an
// override page was configured.
const DefaultNotFoundBody = "<html><h1>404 File Not Found</h1></html>"

// Content is the outcome of resolving one request path: the file bytes with
// status 200, or the fallback body with status 404.
type Content struct {
	Status int
	Type   string
	Body   []byte
}

// Resolver maps request paths onto files below a document root. The
// filesystem is injected so tests can run against memfs.
type Resolver struct {
	fs       billy.Filesystem
	root     string
	fallback []byte
}

func NewResolver(fs billy.Filesystem, root string, fallback []byte) *Resolver {
	if fallback == nil {
		fallback = []byte(DefaultNotFoundBody)
	}
	return &Resolver{fs: fs, root: root, fallback: fallback}
}

// Resolve joins the request path below the document root and reads it. A
// directory target is retried once against its index.html. A missing file
// becomes a 404 with the fallback body; every other read fault (permissions,
// disk errors) is returned as-is, never masked as 404.
//
// ".." segments are not sanitized, so a crafted path can read outside the
// root. This matches the server's teaching scope; do not expose it to
// untrusted clients.
func (r *Resolver) Resolve(path string) (Content, error) {
	name := r.fs.Join(r.root, strings.TrimPrefix(path, "/"))
	if fi, err := r.fs.Stat(name); err == nil && fi.IsDir() {
		name = r.fs.Join(name, "index.html")
	}
	ct := contentType(filepath.Ext(name))

	body, err := util.ReadFile(r.fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return Content{Status: StatusNotFound, Type: ct, Body: r.fallback}, nil
	}
	if err != nil {
		return Content{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Content{Status: StatusOK, Type: ct, Body: body}, nil
}

// contentType is a pure extension → MIME type lookup. Parameters such as
// "; charset=utf-8" are stripped; unknown extensions map to octet-stream.
func contentType(ext string) string {
	t := mime.TypeByExtension(ext)
	if t == "" {
		return "application/octet-stream"
	}
	if base, _, ok := strings.Cut(t, ";"); ok {
		t = base
	}
	return t
}
