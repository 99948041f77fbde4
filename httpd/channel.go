package httpd

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Socket-state misuse is a programming error and is signaled with these
// sentinels, distinct from network faults (which come back as wrapped
// errnos).
var (
	ErrAlreadyOpen        = errors.New("channel is already open")
	ErrAlreadyClosed      = errors.New("channel is already closed")
	ErrNoActiveSocket     = errors.New("channel must be open to listen")
	ErrNoClientConnection = errors.New("no client connection")
)

// Channel owns the listening socket and at most one connected client at a
// time. All calls block; there is no timeout and no locking, so it must only
// be driven from a single goroutine (Close from a signal handler being the
// documented exception).
type Channel struct {
	host    string
	port    int
	backlog int

	fd     int // listening socket, -1 when closed
	client int // accepted client, -1 when none
}

// NewChannel returns a closed channel for host:port. An empty host means
// INADDR_ANY; port 0 lets the OS pick one (see Port).
func NewChannel(host string, port, backlog int) *Channel {
	return &Channel{host: host, port: port, backlog: backlog, fd: -1, client: -1}
}

// Open creates the listening socket: socket, SO_REUSEADDR (so restarts on
// the same port do not fail in TIME_WAIT), bind, listen. The descriptor is
// released again on every error path.
func (c *Channel) Open() error {
	if c.fd != -1 {
		return ErrAlreadyOpen
	}
	addr, err := ipv4Addr(c.host)
	if err != nil {
		return err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: c.port, Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("bind %s:%d: %w", c.host, c.port, err)
	}
	if err := unix.Listen(fd, c.backlog); err != nil {
		unix.Close(fd)
		return fmt.Errorf("listen %s:%d: %w", c.host, c.port, err)
	}
	c.fd = fd
	return nil
}

// AcceptAndReceive blocks until a client connects, then reads up to bufSize
// bytes in a single recv. A request larger than bufSize is truncated; this
// server never loops to drain the socket. Any leftover client handle from a
// previous request is force-closed before accepting.
func (c *Channel) AcceptAndReceive(bufSize int) ([]byte, error) {
	if c.fd == -1 {
		return nil, ErrNoActiveSocket
	}
	c.CloseClient()
	nfd, _, err := unix.Accept(c.fd)
	if err != nil {
		return nil, fmt.Errorf("accept: %w", err)
	}
	c.client = nfd
	buf := make([]byte, bufSize)
	n, err := unix.Read(nfd, buf)
	if err != nil {
		return nil, fmt.Errorf("recv: %w", err)
	}
	return buf[:n], nil
}

// Send writes p to the connected client.
func (c *Channel) Send(p []byte) error {
	if c.client == -1 {
		return ErrNoClientConnection
	}
	if _, err := unix.Write(c.client, p); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// CloseClient tears down the per-request client handle, if any.
func (c *Channel) CloseClient() {
	if c.client != -1 {
		unix.Close(c.client)
		c.client = -1
	}
}

// Close closes the client handle (if any) and then the listening socket.
// Closing an already-closed channel is a contract violation.
func (c *Channel) Close() error {
	if c.fd == -1 {
		return ErrAlreadyClosed
	}
	c.CloseClient()
	err := unix.Close(c.fd)
	c.fd = -1
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// Port reports the port actually bound, which differs from the configured
// one when that was 0.
func (c *Channel) Port() int {
	if c.fd == -1 {
		return c.port
	}
	sa, err := unix.Getsockname(c.fd)
	if sa4, ok := sa.(*unix.SockaddrInet4); err == nil && ok {
		return sa4.Port
	}
	return c.port
}

func ipv4Addr(host string) ([4]byte, error) {
	var addr [4]byte
	if host == "" {
		return addr, nil // 0.0.0.0
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return addr, fmt.Errorf("not an IPv4 address: %q", host)
	}
	copy(addr[:], ip.To4())
	return addr, nil
}
