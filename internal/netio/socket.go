// Package netio implements spec §4.5's networking primitives — non-blocking
// TCP connect/listen/accept/send/recv/close and a TLS layer — as promises
// registered against an internal/async.Scheduler. Every blocking edge is a
// pending-I/O record driven by poll(2) (poll.go), never a goroutine-per-
// connection: the whole subsystem is cooperative, matching the single
// threaded interpreter it plugs into.
package netio

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/frankischilling/cupidscript/internal/value"
)

// Error codes from spec §4.5/§7's taxonomy.
const (
	CodeNetResolve   = "NET_RESOLVE"
	CodeNetConnect   = "NET_CONNECT"
	CodeNetSend      = "NET_SEND"
	CodeNetRecv      = "NET_RECV"
	CodeNetClosed    = "NET_CLOSED"
	CodeNetTimeout   = "NET_TIMEOUT"
	CodeTLSInit      = "TLS_INIT"
	CodeTLSHandshake = "TLS_HANDSHAKE"
	CodeTLSCert      = "TLS_CERT"
	CodeTLSRead      = "TLS_READ"
	CodeTLSWrite     = "TLS_WRITE"
	CodeHTTPNoTLS    = "HTTP_NO_TLS"
)

// errorValue builds the `{msg, code}` map every netio rejection carries.
func errorValue(code, format string, args ...interface{}) value.Value {
	m := value.NewMap()
	m.AsMap().Set("msg", value.NewString(fmt.Sprintf(format, args...)))
	m.AsMap().Set("code", value.NewString(code))
	return m
}

// conn is the Go-side state behind one socket map's `_fd`: the raw file
// descriptor plus whatever TLS layer has been negotiated on top of it.
// socket maps only ever carry `_fd` as the source of truth (§4.5); conn is
// looked up from the registry by that fd.
type conn struct {
	fd       int
	tls      *tlsState // nil until tls_connect/tls_upgrade succeeds
	listener bool
}

// registry maps fd -> conn, guarded by a mutex even though the interpreter
// is single-threaded. The TLS background goroutines (see tls.go) use only
// their own tlsState and do not touch the registry.
type registry struct {
	mu    sync.Mutex
	conns map[int]*conn
}

func newRegistry() *registry {
	return &registry{conns: make(map[int]*conn)}
}

func (r *registry) put(c *conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.fd] = c
}

func (r *registry) get(fd int) (*conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[fd]
	return c, ok
}

func (r *registry) remove(fd int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, fd)
}

// socketValue builds the canonical socket map described in §4.5: `{_fd,
// _type, _tls, _secure, host, port}`. _tls/_secure start false and are
// flipped in place by a successful tls_connect/tls_upgrade.
func socketValue(fd int, typ, host string, port int64) value.Value {
	m := value.NewMap()
	m.AsMap().Set("_fd", value.Int(int64(fd)))
	m.AsMap().Set("_type", value.NewString(typ))
	m.AsMap().Set("_tls", value.Bool(false))
	m.AsMap().Set("_secure", value.Bool(false))
	m.AsMap().Set("host", value.NewString(host))
	m.AsMap().Set("port", value.Int(port))
	return m
}

// socketFD extracts `_fd` from a socket map, rejecting anything that is not
// a map with an int `_fd` key or whose fd is the closed sentinel -1.
func socketFD(sock value.Value) (int, error) {
	if sock.Kind != value.KindMap {
		return -1, fmt.Errorf("expected a socket value, got %s", sock.TypeName())
	}
	fdv, ok := sock.AsMap().Get("_fd")
	if !ok || fdv.Kind != value.KindInt {
		return -1, fmt.Errorf("socket value has no _fd")
	}
	fd := int(fdv.AsInt())
	if fd < 0 {
		return -1, fmt.Errorf("socket is closed")
	}
	return fd, nil
}

// closeFD closes the underlying descriptor. socket_close removes the
// registry entry and cancels pending I/O itself before calling it.
func closeFD(fd int) {
	_ = unix.Close(fd)
}
