package netio

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/frankischilling/cupidscript/internal/async"
	"github.com/frankischilling/cupidscript/internal/value"
)

// resolveIPv4 performs the "DNS (A records only)" lookup spec §4.5 calls
// for. Resolution itself runs synchronously on the calling goroutine
// (blocking the interpreter briefly) rather than through the poll loop —
// net.LookupIP has no non-blocking variant in the standard library, and a
// script's connect() is already a promise, so the one syscall of latency
// here does not change the async contract observed from script level.
func resolveIPv4(host string) ([4]byte, error) {
	var zero [4]byte
	ips, err := net.LookupIP(host)
	if err != nil {
		return zero, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			var out [4]byte
			copy(out[:], v4)
			return out, nil
		}
	}
	return zero, fmt.Errorf("no A record for %q", host)
}

func wantInt(args []value.Value, i int) (int64, bool) {
	if i >= len(args) || args[i].Kind != value.KindInt {
		return 0, false
	}
	return args[i].AsInt(), true
}

func wantString(args []value.Value, i int) (string, bool) {
	if i >= len(args) || args[i].Kind != value.KindString {
		return "", false
	}
	return args[i].AsString().Get(), true
}

// tcpConnect implements `tcp_connect(host, port) → promise<socket>`.
func (m *Manager) tcpConnect(args []value.Value) (value.Value, error) {
	host, ok := wantString(args, 0)
	port, okPort := wantInt(args, 1)
	if !ok || !okPort {
		return value.Nil, errArgs("tcp_connect(host, port)")
	}

	p := value.NewPromise()

	addr, err := resolveIPv4(host)
	if err != nil {
		p.AsPromise().Reject(errorValue(CodeNetResolve, "could not resolve %q: %v", host, err))
		return p, nil
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
	if err != nil {
		p.AsPromise().Reject(errorValue(CodeNetConnect, "socket: %v", err))
		return p, nil
	}

	sa := &unix.SockaddrInet4{Port: int(port), Addr: addr}
	err = unix.Connect(fd, sa)
	if err == nil {
		// Rare: connect completed immediately (e.g. to localhost).
		m.reg.put(&conn{fd: fd})
		p.AsPromise().Resolve(socketValue(fd, "tcp", host, port))
		return p, nil
	}
	if err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		p.AsPromise().Reject(errorValue(CodeNetConnect, "connect: %v", err))
		return p, nil
	}

	m.reg.put(&conn{fd: fd})
	prom := p.AsPromise()
	m.sched.RegisterPendingIO(&async.PendingIO{
		Fd:    fd,
		Write: true,
		OnReady: func(readable, writable, timedOut bool) bool {
			if timedOut {
				_ = unix.Close(fd)
				m.reg.remove(fd)
				prom.Reject(errorValue(CodeNetTimeout, "connect timed out"))
				return false
			}
			errno, serr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
			if serr != nil || errno != 0 {
				_ = unix.Close(fd)
				m.reg.remove(fd)
				prom.Reject(errorValue(CodeNetConnect, "connect failed: errno %d", errno))
				return false
			}
			prom.Resolve(socketValue(fd, "tcp", host, port))
			return false
		},
	})
	return p, nil
}

// tcpListen implements `tcp_listen(host, port) → socket` — synchronous
// bind+listen, not a promise, matching the spec signature.
func (m *Manager) tcpListen(args []value.Value) (value.Value, error) {
	host, ok := wantString(args, 0)
	port, okPort := wantInt(args, 1)
	if !ok || !okPort {
		return value.Nil, errArgs("tcp_listen(host, port)")
	}

	var addr [4]byte
	if host != "" && host != "0.0.0.0" {
		var err error
		addr, err = resolveIPv4(host)
		if err != nil {
			return value.Nil, fmt.Errorf("tcp_listen: %v", err)
		}
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
	if err != nil {
		return value.Nil, fmt.Errorf("tcp_listen: socket: %v", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return value.Nil, fmt.Errorf("tcp_listen: setsockopt: %v", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: int(port), Addr: addr}); err != nil {
		_ = unix.Close(fd)
		return value.Nil, fmt.Errorf("tcp_listen: bind: %v", err)
	}
	if err := unix.Listen(fd, 128); err != nil {
		_ = unix.Close(fd)
		return value.Nil, fmt.Errorf("tcp_listen: listen: %v", err)
	}

	m.reg.put(&conn{fd: fd, listener: true})
	return socketValue(fd, "tcp", host, port), nil
}

// socketAccept implements `socket_accept(server) → promise<socket>`.
func (m *Manager) socketAccept(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, errArgs("socket_accept(server)")
	}
	fd, err := socketFD(args[0])
	if err != nil {
		return value.Nil, err
	}

	p := value.NewPromise()
	prom := p.AsPromise()

	tryAccept := func() bool {
		nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN {
				return true // not ready yet, stay registered
			}
			prom.Reject(errorValue(CodeNetConnect, "accept: %v", err))
			return false
		}
		m.reg.put(&conn{fd: nfd})
		host, port := sockaddrHostPort(sa)
		prom.Resolve(socketValue(nfd, "tcp", host, port))
		return false
	}

	if !tryAccept() {
		return p, nil
	}

	m.sched.RegisterPendingIO(&async.PendingIO{
		Fd:   fd,
		Read: true,
		OnReady: func(readable, writable, timedOut bool) bool {
			if timedOut {
				prom.Reject(errorValue(CodeNetTimeout, "accept timed out"))
				return false
			}
			return tryAccept()
		},
	})
	return p, nil
}

func sockaddrHostPort(sa unix.Sockaddr) (string, int64) {
	if v4, ok := sa.(*unix.SockaddrInet4); ok {
		ip := net.IP(v4.Addr[:])
		return ip.String(), int64(v4.Port)
	}
	return "", 0
}

// socketSend implements `socket_send(sock, data) → promise<int>`.
func (m *Manager) socketSend(args []value.Value) (value.Value, error) {
	if len(args) != 2 || args[1].Kind != value.KindString {
		return value.Nil, errArgs("socket_send(sock, data)")
	}
	fd, err := socketFD(args[0])
	if err != nil {
		return value.Nil, err
	}
	data := []byte(args[1].AsString().Get())

	if c, ok := m.reg.get(fd); ok && c.tls != nil {
		return m.tlsSend(c.tls, data), nil
	}

	p := value.NewPromise()
	prom := p.AsPromise()

	tryWrite := func() bool {
		n, err := unix.Write(fd, data)
		if err != nil {
			if err == unix.EAGAIN {
				return true
			}
			prom.Reject(errorValue(CodeNetSend, "send: %v", err))
			return false
		}
		prom.Resolve(value.Int(int64(n)))
		return false
	}

	if !tryWrite() {
		return p, nil
	}

	m.sched.RegisterPendingIO(&async.PendingIO{
		Fd:    fd,
		Write: true,
		OnReady: func(readable, writable, timedOut bool) bool {
			if timedOut {
				prom.Reject(errorValue(CodeNetTimeout, "send timed out"))
				return false
			}
			return tryWrite()
		},
	})
	return p, nil
}

// socketRecv implements `socket_recv(sock, max_bytes) → promise<string>`.
func (m *Manager) socketRecv(args []value.Value) (value.Value, error) {
	maxBytes, ok := wantInt(args, 1)
	if len(args) != 2 || !ok || maxBytes < 1 || maxBytes > 1048576 {
		return value.Nil, errArgs("socket_recv(sock, max_bytes in [1, 1048576])")
	}
	fd, err := socketFD(args[0])
	if err != nil {
		return value.Nil, err
	}

	if c, ok := m.reg.get(fd); ok && c.tls != nil {
		return m.tlsRecv(c.tls, maxBytes), nil
	}

	p := value.NewPromise()
	prom := p.AsPromise()
	buf := make([]byte, maxBytes)

	tryRead := func() bool {
		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN {
				return true
			}
			prom.Reject(errorValue(CodeNetRecv, "recv: %v", err))
			return false
		}
		if n == 0 {
			prom.Reject(errorValue(CodeNetClosed, "connection closed by peer"))
			return false
		}
		prom.Resolve(value.NewString(string(buf[:n])))
		return false
	}

	if !tryRead() {
		return p, nil
	}

	m.sched.RegisterPendingIO(&async.PendingIO{
		Fd:   fd,
		Read: true,
		OnReady: func(readable, writable, timedOut bool) bool {
			if timedOut {
				prom.Reject(errorValue(CodeNetTimeout, "recv timed out"))
				return false
			}
			return tryRead()
		},
	})
	return p, nil
}

// socketClose implements `socket_close(sock) → nil`.
func (m *Manager) socketClose(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, errArgs("socket_close(sock)")
	}
	fd, err := socketFD(args[0])
	if err != nil {
		return value.Nil, nil // already closed: a no-op, not an error
	}

	m.sched.CancelFD(fd)
	c, ok := m.reg.get(fd)
	m.reg.remove(fd)
	if ok && c.tls != nil {
		// The original fd was already closed by makeBlockingConn.
		c.tls.close()
	} else {
		closeFD(fd)
	}

	args[0].AsMap().Set("_fd", value.Int(-1))
	return value.Nil, nil
}
