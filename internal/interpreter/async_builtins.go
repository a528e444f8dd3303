package interpreter

import (
	"fmt"
	"time"

	"github.com/frankischilling/cupidscript/internal/value"
)

// registerAsyncBuiltins installs the two primitives spec §4.4's scenarios
// build everything else on top of: a timer-only promise constructor and a
// monotonic-enough wall clock read, both ungated by any embedding feature
// flag since the event loop always exists.
func (in *Interpreter) registerAsyncBuiltins() {
	natives := map[string]value.NativeFn{
		"sleep":  in.builtinSleep,
		"now_ms": builtinNowMS,
	}
	for name, fn := range natives {
		_ = in.Globals.Define(name, value.NewNative(name, fn, nil), true)
	}
}

// builtinSleep returns a promise that fulfills with nil after ms
// milliseconds, scheduled on the interpreter's event loop. Awaiting it
// without anything else running pumps timers until it fires.
func (in *Interpreter) builtinSleep(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("sleep expects 1 argument, got %d", len(args))
	}
	var ms int64
	switch args[0].Kind {
	case value.KindInt:
		ms = args[0].AsInt()
	case value.KindFloat:
		ms = int64(args[0].AsFloat())
	default:
		return value.Nil, fmt.Errorf("sleep expects a number of milliseconds, got %s", args[0].TypeName())
	}

	p := value.NewPromise()
	in.Async.ScheduleTimer(ms, p.AsPromise())
	return p, nil
}

// builtinNowMS returns the current wall-clock time as milliseconds since
// the Unix epoch, matched against sleep's ms units.
func builtinNowMS(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil, fmt.Errorf("now_ms expects 0 arguments, got %d", len(args))
	}
	return value.Int(time.Now().UnixMilli()), nil
}
