// Package mirror offers optional read-only exports of the HTTP document root
// over other file-transfer protocols. Exports run on their own goroutines
// and share nothing with the HTTP pipeline beyond the filesystem.
package mirror

import (
	"io"
	"log"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	tftp "github.com/pin/tftp/v3"
)

// rootedName maps a requested TFTP filename onto a path below root.
func rootedName(fs billy.Filesystem, root, filename string) string {
	return fs.Join(root, strings.TrimPrefix(strings.TrimSpace(filename), "/"))
}

func serveFile(fs billy.Filesystem, name string, rf io.ReaderFrom) error {
	f, err := fs.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = rf.ReadFrom(f)
	return err
}

// StartTFTPServer serves root read-only over TFTP on addr.
func StartTFTPServer(addr string, fs billy.Filesystem, root string, logger *log.Logger) (*tftp.Server, error) {
	readHandler := func(filename string, rf io.ReaderFrom) error {
		return serveFile(fs, rootedName(fs, root, filename), rf)
	}

	// Write handler not used.
	srv := tftp.NewServer(readHandler, nil)
	srv.SetTimeout(5 * time.Second)

	go func() {
		logger.Printf("TFTP server listening on %s root=%q", addr, root)
		if err := srv.ListenAndServe(addr); err != nil {
			logger.Printf("TFTP server error: %v", err)
		}
	}()
	return srv, nil
}
