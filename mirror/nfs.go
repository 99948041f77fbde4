package mirror

import (
	"log"
	"net"

	"github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// StartNFSServer exports root over NFSv3 on addr. The returned listener can
// be closed to stop the export.
func StartNFSServer(addr string, fs billy.Filesystem, root string, logger *log.Logger) (net.Listener, error) {
	exported, err := fs.Chroot(root)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	handler := nfshelper.NewNullAuthHandler(exported)
	cached := nfshelper.NewCachingHandler(handler, 1024)

	go func() {
		logger.Printf("NFS server listening on %s root=%q", ln.Addr(), root)
		if err := nfs.Serve(ln, cached); err != nil {
			logger.Printf("NFS server error: %v", err)
		}
	}()
	return ln, nil
}
