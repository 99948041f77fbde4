package httpd

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
)

func openChannel(t *testing.T) *Channel {
	t.Helper()
	ch := NewChannel("127.0.0.1", 0, DefaultBacklog)
	if err := ch.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return ch
}

func dialChannel(t *testing.T, ch *Channel) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", ch.Port()))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

func TestChannelReceiveAndSend(t *testing.T) {
	ch := openChannel(t)
	defer ch.Close()

	conn := dialChannel(t, ch)
	defer conn.Close()
	if _, err := conn.Write([]byte("GET / HTTP/1.1\n\n")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	data, err := ch.AcceptAndReceive(DefaultBufferSize)
	if err != nil {
		t.Fatalf("AcceptAndReceive: %v", err)
	}
	if string(data) != "GET / HTTP/1.1\n\n" {
		t.Fatalf("received %q", data)
	}

	if err := ch.Send([]byte("pong")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ch.CloseClient()

	reply, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(reply) != "pong" {
		t.Fatalf("client got %q", reply)
	}
}

// A request larger than the buffer is truncated; the channel never loops to
// drain the socket.
func TestChannelReceiveTruncates(t *testing.T) {
	ch := openChannel(t)
	defer ch.Close()

	conn := dialChannel(t, ch)
	defer conn.Close()
	big := make([]byte, 100)
	if _, err := conn.Write(big); err != nil {
		t.Fatalf("client write: %v", err)
	}

	data, err := ch.AcceptAndReceive(16)
	if err != nil {
		t.Fatalf("AcceptAndReceive: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("got %d bytes, want 16", len(data))
	}
}

// Sequential connections are independent: the stale client handle from one
// request never leaks into the next.
func TestChannelSequentialConnections(t *testing.T) {
	ch := openChannel(t)
	defer ch.Close()

	for i := 0; i < 3; i++ {
		conn := dialChannel(t, ch)
		msg := fmt.Sprintf("request %d", i)
		if _, err := conn.Write([]byte(msg)); err != nil {
			t.Fatalf("client write: %v", err)
		}
		data, err := ch.AcceptAndReceive(DefaultBufferSize)
		if err != nil {
			t.Fatalf("AcceptAndReceive %d: %v", i, err)
		}
		if string(data) != msg {
			t.Fatalf("request %d: received %q", i, data)
		}
		if err := ch.Send([]byte("ok")); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		ch.CloseClient()
		conn.Close()
	}
}

func TestChannelStateMisuse(t *testing.T) {
	ch := NewChannel("127.0.0.1", 0, DefaultBacklog)

	if _, err := ch.AcceptAndReceive(DefaultBufferSize); !errors.Is(err, ErrNoActiveSocket) {
		t.Errorf("receive on closed channel: got %v want ErrNoActiveSocket", err)
	}
	if err := ch.Send([]byte("x")); !errors.Is(err, ErrNoClientConnection) {
		t.Errorf("send without client: got %v want ErrNoClientConnection", err)
	}
	if err := ch.Close(); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("close on closed channel: got %v want ErrAlreadyClosed", err)
	}

	if err := ch.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := ch.Open(); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("double open: got %v want ErrAlreadyOpen", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ch.Close(); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("double close: got %v want ErrAlreadyClosed", err)
	}
}

// SO_REUSEADDR lets a restart bind the same port immediately.
func TestChannelReopenSamePort(t *testing.T) {
	ch := openChannel(t)
	port := ch.Port()

	conn := dialChannel(t, ch)
	if _, err := conn.Write([]byte("x")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	if _, err := ch.AcceptAndReceive(DefaultBufferSize); err != nil {
		t.Fatalf("AcceptAndReceive: %v", err)
	}
	conn.Close()
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	again := NewChannel("127.0.0.1", port, DefaultBacklog)
	if err := again.Open(); err != nil {
		t.Fatalf("reopen on port %d: %v", port, err)
	}
	again.Close()
}

func TestChannelBadHost(t *testing.T) {
	ch := NewChannel("not-an-ip", 0, DefaultBacklog)
	if err := ch.Open(); err == nil {
		ch.Close()
		t.Fatalf("expected error for invalid host")
	}
}
