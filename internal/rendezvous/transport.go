package rendezvous

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// ReadySignal is the single byte sent on every handshake. Receivers do not
// inspect its value.
const ReadySignal byte = 1

// Transport carries ready signals between the two sides of a rendezvous.
type Transport interface {
	Send(signal byte) error
	// Receive blocks for one datagram and returns its payload (at most one
	// byte). An empty payload is not an error.
	Receive() ([]byte, error)
	Close() error
}

// Dialer opens a Transport bound to local and addressed to peer.
type Dialer func(local, peer string) (Transport, error)

// ExchangeReadySignal sends one ready byte and blocks until the peer answers
// with a datagram of its own.
func ExchangeReadySignal(t Transport) error {
	if err := t.Send(ReadySignal); err != nil {
		return ipcError("send", err)
	}
	if _, err := t.Receive(); err != nil {
		return ipcError("receive", err)
	}
	return nil
}

type unixgramTransport struct {
	conn  *net.UnixConn
	peer  *net.UnixAddr
	local string
}

// DialUnixgram creates a datagram socket bound to local (removing any stale
// file first) and connected to peer. The peer must already be bound.
func DialUnixgram(local, peer string) (Transport, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, ipcError("socket", err)
	}

	if err := removeStale(local); err != nil {
		_ = unix.Close(fd)
		return nil, ipcError("bind", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: local}); err != nil {
		_ = unix.Close(fd)
		return nil, ipcError("bind", fmt.Errorf("%s: %w", local, err))
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: peer}); err != nil {
		_ = unix.Close(fd)
		_ = removeStale(local)
		return nil, ipcError("connect", fmt.Errorf("%s: %w", peer, err))
	}

	f := os.NewFile(uintptr(fd), local)
	c, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		_ = removeStale(local)
		return nil, ipcError("socket", err)
	}
	conn, ok := c.(*net.UnixConn)
	if !ok {
		_ = c.Close()
		_ = removeStale(local)
		return nil, ipcError("socket", fmt.Errorf("unexpected connection type %T", c))
	}
	return &unixgramTransport{conn: conn, local: local}, nil
}

// ListenUnixgram binds a datagram socket at local without connecting it.
// Signals are sent to peer, which only has to exist by the time Send is
// first called.
func ListenUnixgram(local, peer string) (Transport, error) {
	if err := removeStale(local); err != nil {
		return nil, ipcError("bind", err)
	}
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: local, Net: "unixgram"})
	if err != nil {
		return nil, ipcError("bind", err)
	}
	return &unixgramTransport{
		conn:  conn,
		peer:  &net.UnixAddr{Name: peer, Net: "unixgram"},
		local: local,
	}, nil
}

func (t *unixgramTransport) Send(signal byte) error {
	var err error
	if t.peer == nil {
		_, err = t.conn.Write([]byte{signal})
	} else {
		_, err = t.conn.WriteToUnix([]byte{signal}, t.peer)
	}
	return err
}

func (t *unixgramTransport) Receive() ([]byte, error) {
	buf := make([]byte, 1)
	n, _, err := t.conn.ReadFromUnix(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (t *unixgramTransport) Close() error {
	err := t.conn.Close()
	if rmErr := removeStale(t.local); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
