package httpd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	DefaultPort       = 80
	DefaultBufferSize = 1024
	DefaultBacklog    = 5
)

// Config describes one server instance. It is immutable once passed to New.
// Host, buffer size and document root are embedding parameters; the minimal
// command line only exposes the port.
type Config struct {
	Host string
	Port int // 0 lets the OS pick a port

	// Root is the document root. All servable files live below it.
	Root string

	// NotFoundPage optionally names a file whose contents replace
	// DefaultNotFoundBody. Read once at startup.
	NotFoundPage string

	BufferSize int // max bytes read per request, single recv
	Backlog    int // accept queue length
}

// DefaultConfig returns the configuration the original tool shipped with:
// port 80, 1 KiB receive buffer, backlog of 5.
func DefaultConfig(root string) Config {
	return Config{
		Port:       DefaultPort,
		Root:       root,
		BufferSize: DefaultBufferSize,
		Backlog:    DefaultBacklog,
	}
}

// Server drives one request at a time through the pipeline:
// accept+receive → parse → resolve → build → send → close client → log.
// It is single-threaded and fully blocking.
type Server struct {
	channel  *Channel
	resolver *Resolver
	bufSize  int
	host     string
	root     string
	logger   *log.Logger
}

// New builds a server from cfg. Files (the document root and the optional
// 404 override page) are looked up on fs. A nil logger logs to stdout.
func New(cfg Config, fs billy.Filesystem, logger *log.Logger) (*Server, error) {
	if cfg.Port < 0 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = DefaultBacklog
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", cfg.Root, err)
	}

	fallback := []byte(nil)
	if cfg.NotFoundPage != "" {
		fallback, err = util.ReadFile(fs, cfg.NotFoundPage)
		if err != nil {
			return nil, fmt.Errorf("read 404 page: %w", err)
		}
	}
	if logger == nil {
		logger = log.New(os.Stdout, "httpd ", log.LstdFlags)
	}

	return &Server{
		channel:  NewChannel(cfg.Host, cfg.Port, cfg.Backlog),
		resolver: NewResolver(fs, root, fallback),
		bufSize:  cfg.BufferSize,
		host:     cfg.Host,
		root:     root,
		logger:   logger,
	}, nil
}

// Open binds the listening socket and logs the bound address.
func (s *Server) Open() error {
	if err := s.channel.Open(); err != nil {
		return err
	}
	s.logger.Printf("listening on %s:%d root=%q", s.host, s.channel.Port(), s.root)
	return nil
}

// ServeRequest handles exactly one request/response cycle. A malformed
// request or a non-ENOENT read fault is returned and stops the caller's
// loop; there is no per-request fault isolation.
func (s *Server) ServeRequest() error {
	data, err := s.channel.AcceptAndReceive(s.bufSize)
	if err != nil {
		return err
	}
	req, err := ParseRequest(data)
	if err != nil {
		return err
	}
	content, err := s.resolver.Resolve(req.Path)
	if err != nil {
		return err
	}
	if err := s.channel.Send(BuildResponse(content)); err != nil {
		return err
	}
	s.channel.CloseClient()
	s.logger.Printf("%d - %s %s %s", content.Status, req.Method, req.Path, req.UserAgent())
	return nil
}

// Serve opens the listening socket if needed and handles requests until Stop
// is called or an unrecovered error occurs.
func (s *Server) Serve() error {
	if err := s.Open(); err != nil && !errors.Is(err, ErrAlreadyOpen) {
		return err
	}
	for {
		if err := s.ServeRequest(); err != nil {
			return err
		}
	}
}

// Stop closes the client handle (if any) and the listening socket.
func (s *Server) Stop() error {
	return s.channel.Close()
}

// Port reports the bound listening port, useful when configured with port 0.
func (s *Server) Port() int {
	return s.channel.Port()
}
