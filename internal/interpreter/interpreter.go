// Package interpreter implements the CupidScript tree-walking evaluator:
// control flow, operator semantics, method dispatch, pattern matching, and
// error propagation with stack traces over the AST produced by the parser.
package interpreter

import (
	"sync/atomic"
	"time"

	"github.com/frankischilling/cupidscript/internal/async"
	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/scripterror"
	"github.com/frankischilling/cupidscript/internal/value"
	"go.uber.org/zap"
)

// Frame is one entry of the interpreter's call stack, used to build
// scripterror.Frame traces on error.
type Frame struct {
	Function string
	CallSite ast.SourceLocation
}

// Interpreter holds everything needed to evaluate one running script: the
// global scope, the live call stack, and the safety controls the embedding
// API exposes to hosts.
type Interpreter struct {
	Globals *environment.Environment
	Source  string // virtual name used in diagnostics
	Log     *zap.Logger
	Print   func(string) // hook for the `print` builtin; defaults to stdout

	// Async is the single-threaded event loop backing promises, timers,
	// and (once internal/netio registers pending I/O against it) sockets.
	// `await` pumps it via Drain until the awaited promise settles.
	Async *async.Scheduler

	stack []Frame

	instructionCount int64
	instructionLimit int64 // 0 = unbounded

	startedAt time.Time
	timeout   time.Duration // 0 = unbounded

	interrupted atomic.Bool
}

// New creates an Interpreter with a fresh global scope.
func New(source string, log *zap.Logger) *Interpreter {
	if log == nil {
		log = zap.NewNop()
	}
	in := &Interpreter{
		Globals: environment.New(),
		Source:  source,
		Log:     log,
		Print:   func(s string) { print(s) }, //nolint:forbidigo // overridden by cmd/cupidscript
		Async:   async.New(log),
	}
	in.registerBuiltins()
	in.registerAsyncBuiltins()
	return in
}

// SetInstructionLimit bounds the number of statement-boundary safepoints
// before the script aborts with a non-retryable error. Zero disables it.
func (in *Interpreter) SetInstructionLimit(n int64) { in.instructionLimit = n }

// SetTimeout bounds wall-clock execution time. Zero disables it.
func (in *Interpreter) SetTimeout(d time.Duration) {
	in.timeout = d
	in.startedAt = time.Now()
}

// Interrupt requests that the running script abort at the next safepoint.
// Safe to call from any goroutine even though evaluation is single-threaded.
func (in *Interpreter) Interrupt() { in.interrupted.Store(true) }

// InstructionCount reports the number of safepoints crossed so far.
func (in *Interpreter) InstructionCount() int64 { return in.instructionCount }

// pushFrame/popFrame maintain the call stack used for error stack traces.
func (in *Interpreter) pushFrame(name string, loc ast.SourceLocation) {
	in.stack = append(in.stack, Frame{Function: name, CallSite: loc})
}

func (in *Interpreter) popFrame() {
	if len(in.stack) > 0 {
		in.stack = in.stack[:len(in.stack)-1]
	}
}

// stackTrace renders the current call stack as scripterror.Frame entries,
// innermost (most recently pushed) first.
func (in *Interpreter) stackTrace() []scripterror.Frame {
	frames := make([]scripterror.Frame, 0, len(in.stack))
	for i := len(in.stack) - 1; i >= 0; i-- {
		frames = append(frames, scripterror.Frame{Function: in.stack[i].Function, Location: in.stack[i].CallSite})
	}
	return frames
}

// newRuntimeError builds a *scripterror.ScriptError stamped with the
// current source, location, and call stack.
func (in *Interpreter) newRuntimeError(loc ast.SourceLocation, format string, args ...interface{}) *scripterror.ScriptError {
	return scripterror.Runtimef(loc, format, args...).WithSource(in.Source).WithStack(in.stackTrace())
}

// checkSafepoint is called at every statement boundary and loop back-edge
// per the spec's safepoint contract: it advances the instruction counter
// and checks interrupt/instruction-limit/timeout, aborting with a
// dedicated, non-catchable error when any is tripped.
func (in *Interpreter) checkSafepoint(loc ast.SourceLocation) *abortError {
	in.instructionCount++

	if in.interrupted.Load() {
		return &abortError{scripterror.Runtimef(loc, "script interrupted").WithSource(in.Source).WithStack(in.stackTrace())}
	}
	if in.instructionLimit > 0 && in.instructionCount > in.instructionLimit {
		return &abortError{scripterror.Runtimef(loc, "instruction limit exceeded (%d instructions)", in.instructionLimit).WithSource(in.Source).WithStack(in.stackTrace())}
	}
	if in.timeout > 0 && time.Since(in.startedAt) > in.timeout {
		return &abortError{scripterror.Runtimef(loc, "execution timeout exceeded (%s)", in.timeout).WithSource(in.Source).WithStack(in.stackTrace())}
	}
	return nil
}

// abortCheck returns a closure suitable for async.Scheduler.Drain's
// checkAbort parameter, reusing the same safepoint rules that gate every
// other statement boundary.
func (in *Interpreter) abortCheck(loc ast.SourceLocation) func() error {
	return func() error {
		if ab := in.checkSafepoint(loc); ab != nil {
			return ab.err
		}
		return nil
	}
}

// abortError wraps a safety abort (instruction limit, timeout, interrupt):
// unlike a thrown value, it is NOT catchable by try/catch and unwinds the
// whole call immediately.
type abortError struct {
	err *scripterror.ScriptError
}

func (a *abortError) Error() string { return a.err.Error() }

// Run parses nothing itself (the caller supplies an *ast.Program) and
// executes every top-level statement in the global scope, returning the
// first uncaught thrown value (if any) as an error.
func (in *Interpreter) Run(program *ast.Program) error {
	in.pushFrame("<script>", program.Loc)
	defer in.popFrame()

	sig, err := in.execBlockStatements(program.Statements, in.Globals)
	if err != nil {
		return err.err
	}
	if sig.kind == sigThrow {
		return in.uncaughtThrow(sig.value, program.Loc)
	}
	return nil
}

func (in *Interpreter) uncaughtThrow(v value.Value, loc ast.SourceLocation) error {
	if v.Kind == value.KindString {
		return in.newRuntimeError(loc, "uncaught exception: %s", v.AsString().Get())
	}
	return in.newRuntimeError(loc, "uncaught exception: %s", v.String())
}
