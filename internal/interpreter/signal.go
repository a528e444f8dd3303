package interpreter

import "github.com/frankischilling/cupidscript/internal/value"

// signalKind tags how control left a statement: fall-through (sigNone) or
// one of the four ways CupidScript can unwind a block, mirroring the
// spec's exec_result{did_return, return_value, ok} shape generalized to
// cover break/continue/throw as well as return.
type signalKind int

const (
	sigNone signalKind = iota
	sigReturn
	sigBreak
	sigContinue
	sigThrow
)

// signal is the result of executing a statement or block: either plain
// fall-through, or one of the four unwinding signals carrying a value
// (the returned value, or the thrown value).
type signal struct {
	kind  signalKind
	value value.Value
}

var noSignal = signal{kind: sigNone}
