package netio

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/frankischilling/cupidscript/internal/async"
	"github.com/frankischilling/cupidscript/internal/value"
)

// tlsState is the TLS layer bolted onto a conn once tls_connect/tls_upgrade
// succeeds. Handshakes and subsequent reads/writes run on a background
// goroutine (crypto/tls.Conn assumes a blocking net.Conn, which a
// non-blocking raw fd cannot satisfy) and report back to the event loop
// through a self-pipe: a standard Unix trick for folding blocking work
// into a poll(2) loop without turning the rest of the scheduler's model
// goroutine-per-connection.
type tlsState struct {
	conn  *tls.Conn
	nc    net.Conn
	state tls.ConnectionState
	mu    sync.Mutex
}

func (t *tlsState) close() {
	_ = t.conn.Close()
}

// bgResult is what a background job reports back through the self-pipe.
type bgResult struct {
	val    value.Value
	reject bool
}

// runBackground runs work on a goroutine and wakes the event loop via a
// self-pipe once it completes, invoking finish on the scheduler's own
// goroutine (never from work's goroutine) so callers can safely touch
// interpreter-visible value.Value state without a data race.
func (m *Manager) runBackground(work func() bgResult, finish func(bgResult)) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		finish(bgResult{val: errorValue(CodeTLSInit, "pipe: %v", err), reject: true})
		return
	}
	pr, pw := fds[0], fds[1]

	ch := make(chan bgResult, 1)
	go func() {
		res := work()
		ch <- res
		_, _ = unix.Write(pw, []byte{1})
	}()

	m.sched.RegisterPendingIO(&async.PendingIO{
		Fd:   pr,
		Read: true,
		OnReady: func(readable, writable, timedOut bool) bool {
			if timedOut {
				finish(bgResult{val: errorValue(CodeNetTimeout, "operation timed out"), reject: true})
				_ = unix.Close(pr)
				_ = unix.Close(pw)
				return false
			}
			var b [1]byte
			_, _ = unix.Read(pr, b[:])
			res := <-ch
			_ = unix.Close(pr)
			_ = unix.Close(pw)
			finish(res)
			return false
		},
	})
}

// makeBlockingConn hands the raw fd to crypto/tls by wrapping it in a
// net.Conn. net.FileConn dups the descriptor, so the original fd is
// closed immediately after — the socket map's `_fd` keeps referring to
// the (now-dead) original number purely as the registry lookup key;
// socket_close tears down the TLS connection by calling tlsState.close(),
// not by closing that stale number again.
func makeBlockingConn(fd int) (net.Conn, error) {
	if err := unix.SetNonblock(fd, false); err != nil {
		return nil, fmt.Errorf("set blocking: %w", err)
	}
	f := os.NewFile(uintptr(fd), "cupidscript-socket")
	nc, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		return nil, err
	}
	return nc, nil
}

func classifyTLSError(err error) string {
	switch err.(type) {
	case x509.UnknownAuthorityError, x509.CertificateInvalidError, x509.HostnameError:
		return CodeTLSCert
	default:
		return CodeTLSHandshake
	}
}

// tlsConnect implements `tls_connect(sock, hostname) → promise<socket>`: a
// client-side handshake with certificate verification against the system
// root pool (default `tls.Config` behavior) and SNI set to hostname.
func (m *Manager) tlsConnect(args []value.Value) (value.Value, error) {
	hostname, ok := wantString(args, 1)
	if len(args) != 2 || !ok {
		return value.Nil, errArgs("tls_connect(sock, hostname)")
	}
	sock := args[0]
	fd, err := socketFD(sock)
	if err != nil {
		return value.Nil, err
	}

	p := value.NewPromise()
	prom := p.AsPromise()

	nc, err := makeBlockingConn(fd)
	if err != nil {
		prom.Reject(errorValue(CodeTLSInit, "%v", err))
		return p, nil
	}

	ts := &tlsState{nc: nc}
	ts.conn = tls.Client(nc, &tls.Config{ServerName: hostname})
	if c, ok := m.reg.get(fd); ok {
		c.tls = ts
	}

	m.runBackground(
		func() bgResult {
			if err := ts.conn.Handshake(); err != nil {
				return bgResult{val: errorValue(classifyTLSError(err), "tls handshake: %v", err), reject: true}
			}
			return bgResult{}
		},
		func(res bgResult) {
			if res.reject {
				prom.Reject(res.val)
				return
			}
			ts.state = ts.conn.ConnectionState()
			sock.AsMap().Set("_tls", value.Bool(true))
			sock.AsMap().Set("_secure", value.Bool(true))
			prom.Resolve(sock)
		},
	)
	return p, nil
}

// tlsUpgrade implements `tls_upgrade(sock) → promise<nil>`: a server-side
// handshake. The spec never defines a certificate-registration API, so an
// ephemeral self-signed certificate is generated per process — adequate
// for scripts that only need the connection encrypted, not publicly
// verifiable (documented limitation, see DESIGN.md).
func (m *Manager) tlsUpgrade(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, errArgs("tls_upgrade(sock)")
	}
	sock := args[0]
	fd, err := socketFD(sock)
	if err != nil {
		return value.Nil, err
	}

	p := value.NewPromise()
	prom := p.AsPromise()

	nc, err := makeBlockingConn(fd)
	if err != nil {
		prom.Reject(errorValue(CodeTLSInit, "%v", err))
		return p, nil
	}

	cert, err := ephemeralCert()
	if err != nil {
		prom.Reject(errorValue(CodeTLSInit, "generate certificate: %v", err))
		return p, nil
	}

	ts := &tlsState{nc: nc}
	ts.conn = tls.Server(nc, &tls.Config{Certificates: []tls.Certificate{cert}})
	if c, ok := m.reg.get(fd); ok {
		c.tls = ts
	}

	m.runBackground(
		func() bgResult {
			if err := ts.conn.Handshake(); err != nil {
				return bgResult{val: errorValue(classifyTLSError(err), "tls handshake: %v", err), reject: true}
			}
			return bgResult{}
		},
		func(res bgResult) {
			if res.reject {
				prom.Reject(res.val)
				return
			}
			ts.state = ts.conn.ConnectionState()
			sock.AsMap().Set("_tls", value.Bool(true))
			sock.AsMap().Set("_secure", value.Bool(true))
			prom.Resolve(value.Nil)
		},
	)
	return p, nil
}

// socketIsSecure implements `socket_is_secure(sock) → bool`, a plain
// synchronous accessor over the socket map's own `_secure` flag.
func (m *Manager) socketIsSecure(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindMap {
		return value.Nil, errArgs("socket_is_secure(sock)")
	}
	v, ok := args[0].AsMap().Get("_secure")
	if !ok {
		return value.Bool(false), nil
	}
	return v, nil
}

// tlsInfo implements `tls_info(sock) → map` — version/cipher/ALPN for a
// socket that has completed tls_connect/tls_upgrade.
func (m *Manager) tlsInfo(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, errArgs("tls_info(sock)")
	}
	fd, err := socketFD(args[0])
	if err != nil {
		return value.Nil, err
	}
	c, ok := m.reg.get(fd)
	if !ok || c.tls == nil {
		return value.Nil, fmt.Errorf("socket has no active TLS session")
	}

	info := value.NewMap()
	info.AsMap().Set("version", value.NewString(tlsVersionName(c.tls.state.Version)))
	info.AsMap().Set("cipher_suite", value.NewString(tls.CipherSuiteName(c.tls.state.CipherSuite)))
	info.AsMap().Set("alpn_protocol", value.NewString(c.tls.state.NegotiatedProtocol))
	return info, nil
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS10:
		return "TLS1.0"
	case tls.VersionTLS11:
		return "TLS1.1"
	case tls.VersionTLS12:
		return "TLS1.2"
	case tls.VersionTLS13:
		return "TLS1.3"
	default:
		return "unknown"
	}
}

// tlsSend/tlsRecv back socket_send/socket_recv once a socket has an active
// TLS session: crypto/tls.Conn's Read/Write are blocking, so they run on
// the same self-pipe background-job path as the handshake.
func (m *Manager) tlsSend(ts *tlsState, data []byte) value.Value {
	p := value.NewPromise()
	prom := p.AsPromise()
	m.runBackground(
		func() bgResult {
			n, err := ts.conn.Write(data)
			if err != nil {
				return bgResult{val: errorValue(CodeTLSWrite, "tls write: %v", err), reject: true}
			}
			return bgResult{val: value.Int(int64(n))}
		},
		func(res bgResult) {
			if res.reject {
				prom.Reject(res.val)
				return
			}
			prom.Resolve(res.val)
		},
	)
	return p
}

func (m *Manager) tlsRecv(ts *tlsState, maxBytes int64) value.Value {
	p := value.NewPromise()
	prom := p.AsPromise()
	buf := make([]byte, maxBytes)
	m.runBackground(
		func() bgResult {
			n, err := ts.conn.Read(buf)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return bgResult{val: errorValue(CodeNetClosed, "connection closed by peer"), reject: true}
				}
				return bgResult{val: errorValue(CodeTLSRead, "tls read: %v", err), reject: true}
			}
			return bgResult{val: value.NewString(string(buf[:n]))}
		},
		func(res bgResult) {
			if res.reject {
				prom.Reject(res.val)
				return
			}
			prom.Resolve(res.val)
		},
	)
	return p
}

var (
	ephemeralCertOnce sync.Once
	ephemeralCertVal  tls.Certificate
	ephemeralCertErr  error
)

// ephemeralCert lazily generates and caches a self-signed RSA certificate
// for the process lifetime, used by tls_upgrade.
func ephemeralCert() (tls.Certificate, error) {
	ephemeralCertOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			ephemeralCertErr = err
			return
		}
		tmpl := &x509.Certificate{
			SerialNumber: big.NewInt(1),
			Subject:      pkix.Name{CommonName: "cupidscript-ephemeral"},
			NotBefore:    time.Now().Add(-time.Hour),
			NotAfter:     time.Now().Add(24 * time.Hour),
			KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
			ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		}
		der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
		if err != nil {
			ephemeralCertErr = err
			return
		}
		ephemeralCertVal = tls.Certificate{
			Certificate: [][]byte{der},
			PrivateKey:  key,
		}
	})
	return ephemeralCertVal, ephemeralCertErr
}
