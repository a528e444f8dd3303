package netio

import (
	"time"

	"github.com/frankischilling/cupidscript/internal/async"
	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/value"
)

// Manager owns the fd registry and the scheduler every netio native
// registers pending I/O against. One Manager is created per Interpreter,
// the same lifetime as its async.Scheduler.
type Manager struct {
	sched *async.Scheduler
	reg   *registry
}

// NewManager wires sched's PollFunc to this package's poll(2) wrapper and
// returns a Manager ready to register natives against globals.
func NewManager(sched *async.Scheduler) *Manager {
	sched.SetPollFunc(PollFunc)
	return &Manager{sched: sched, reg: newRegistry()}
}

// Register installs every spec §4.5 native as a dotted global, following
// the same convention pkg/runtime.Register and the interpreter's own
// builtins use: value.NewNative entries defined directly into globals.
func Register(globals *environment.Environment, sched *async.Scheduler) *Manager {
	m := NewManager(sched)
	natives := map[string]value.NativeFn{
		"tcp_connect":             m.tcpConnect,
		"tcp_listen":              m.tcpListen,
		"socket_accept":           m.socketAccept,
		"socket_send":             m.socketSend,
		"socket_recv":             m.socketRecv,
		"socket_close":            m.socketClose,
		"tls_connect":             m.tlsConnect,
		"tls_upgrade":             m.tlsUpgrade,
		"socket_is_secure":        m.socketIsSecure,
		"tls_info":                m.tlsInfo,
		"net_set_default_timeout": m.netSetDefaultTimeout,
	}
	for name, fn := range natives {
		_ = globals.Define(name, value.NewNative(name, fn, nil), true)
	}
	return m
}

func (m *Manager) netSetDefaultTimeout(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindInt {
		return value.Nil, errArgs("net_set_default_timeout(ms)")
	}
	m.sched.SetDefaultTimeout(time.Duration(args[0].AsInt()) * time.Millisecond)
	return value.Nil, nil
}

func errArgs(sig string) error {
	return &argError{sig}
}

type argError struct{ sig string }

func (e *argError) Error() string { return "expected arguments matching " + e.sig }
