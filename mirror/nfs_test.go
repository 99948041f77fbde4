package mirror

import (
	"io"
	"log"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func TestStartNFSServer(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "/srv/index.html", []byte("<p>hi</p>"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	ln, err := StartNFSServer("127.0.0.1:0", fs, "/srv", logger)
	if err != nil {
		t.Fatalf("StartNFSServer: %v", err)
	}
	if ln.Addr() == nil {
		t.Fatalf("no listen address")
	}
	ln.Close()
}

func TestStartNFSServerBadAddr(t *testing.T) {
	fs := memfs.New()
	logger := log.New(io.Discard, "", 0)
	if ln, err := StartNFSServer("257.1.1.1:1", fs, "/srv", logger); err == nil {
		ln.Close()
		t.Fatalf("expected listen error")
	}
}
