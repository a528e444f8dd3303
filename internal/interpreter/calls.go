package interpreter

import (
	"fmt"

	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/value"
)

func (in *Interpreter) evalCallExpr(e *ast.CallExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	if fe, ok := e.Callee.(*ast.FieldExpr); ok {
		return in.evalMethodCall(fe, e.Args, env, e.Loc)
	}

	callee, abort, sig := in.evalExpr(e.Callee, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	args, abort, sig := in.evalArgs(e.Args, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	return in.invokeValue(callee, args, e.Loc)
}

// evalCallee resolves a defer's callee to a plain callable Value ahead of
// its block-exit invocation. Field-expression callees (method calls and
// dotted globals) are wrapped as a Native closure so invokeValue can treat
// every deferred call uniformly. The bool result is unused by callers
// today; it is reserved for distinguishing a dotted-global resolution from
// an ordinary value.
func (in *Interpreter) evalCallee(expr ast.Expr, env *environment.Environment) (value.Value, bool, *abortError) {
	if fe, ok := expr.(*ast.FieldExpr); ok {
		if ident, ok := fe.Target.(*ast.IdentExpr); ok {
			if _, bound := env.Get(ident.Name); !bound {
				global, ok := in.Globals.Get(ident.Name + "." + fe.Field)
				if !ok {
					return value.Nil, false, &abortError{in.newRuntimeError(fe.Loc, "undefined function %q", ident.Name+"."+fe.Field)}
				}
				return global, true, nil
			}
		}
		target, abort, sig := in.evalExpr(fe.Target, env)
		if abort != nil {
			return value.Nil, false, abort
		}
		if sig.kind == sigThrow {
			return value.Nil, false, &abortError{in.newRuntimeError(fe.Loc, "%s", sig.value.String())}
		}
		field := fe.Field
		bound := value.NewNative(field, func(args []value.Value) (value.Value, error) {
			return in.dispatchMethod(target, field, args)
		}, nil)
		return bound, false, nil
	}

	v, abort, sig := in.evalExpr(expr, env)
	if abort != nil {
		return value.Nil, false, abort
	}
	if sig.kind == sigThrow {
		return value.Nil, false, &abortError{in.newRuntimeError(expr.Location(), "%s", sig.value.String())}
	}
	return v, false, nil
}

// evalMethodCall implements the single method-call construct CALL(GETFIELD(target,
// field), args): dispatch on the receiver's type for built-in container
// methods, falling back to a dotted-global lookup (e.g. `String.upcase`)
// when the receiver is an unbound bare identifier.
func (in *Interpreter) evalMethodCall(fe *ast.FieldExpr, argExprs []ast.Expr, env *environment.Environment, loc ast.SourceLocation) (value.Value, *abortError, signal) {
	if ident, ok := fe.Target.(*ast.IdentExpr); ok {
		if _, bound := env.Get(ident.Name); !bound {
			global, ok := in.Globals.Get(ident.Name + "." + fe.Field)
			if !ok {
				full := ident.Name + "." + fe.Field
				return value.Nil, nil, throwf(in, loc, "undefined function %q%s", full, didYouMean(full, in.Globals.VisibleNames()))
			}
			args, abort, sig := in.evalArgs(argExprs, env)
			if abort != nil || sig.kind == sigThrow {
				return value.Nil, abort, sig
			}
			return in.invokeValue(global, args, loc)
		}
	}

	target, abort, sig := in.evalExpr(fe.Target, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	if target.IsNil() && fe.Optional {
		return value.Nil, nil, noSignal
	}

	args, abort, sig := in.evalArgs(argExprs, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}

	result, err := in.dispatchMethod(target, fe.Field, args)
	if err != nil {
		return value.Nil, nil, throwf(in, loc, "%s", err.Error())
	}
	return result, nil, noSignal
}

// dispatchMethod looks up and invokes a built-in container method. These
// are bounded, allocation-free-ish operations, so no safepoint check
// applies; any failure is reported as a plain error and surfaces as a
// catchable throw at the call site.
func (in *Interpreter) dispatchMethod(target value.Value, field string, args []value.Value) (value.Value, error) {
	switch target.Kind {
	case value.KindStrBuf:
		return callStrBufMethod(target.AsStrBuf(), field, args)
	case value.KindList:
		return callListMethod(target.AsList(), field, args)
	case value.KindMap:
		return callMapMethod(target.AsMap(), field, args)
	case value.KindString:
		return callStringMethod(target.AsString(), field, args)
	case value.KindPromise:
		return callPromiseMethod(target.AsPromise(), field, args)
	default:
		return value.Nil, fmt.Errorf("no method %q on %s", field, target.TypeName())
	}
}

func (in *Interpreter) evalArgs(exprs []ast.Expr, env *environment.Environment) ([]value.Value, *abortError, signal) {
	args := make([]value.Value, 0, len(exprs))
	for _, a := range exprs {
		v, abort, sig := in.evalExpr(a, env)
		if abort != nil || sig.kind == sigThrow {
			return nil, abort, sig
		}
		args = append(args, v)
	}
	return args, nil, noSignal
}

// invokeValue calls a script function or a native function with already
// evaluated args.
func (in *Interpreter) invokeValue(callee value.Value, args []value.Value, loc ast.SourceLocation) (value.Value, *abortError, signal) {
	switch callee.Kind {
	case value.KindFunc:
		return in.invokeFunc(callee.AsFunc(), args, loc)
	case value.KindNative:
		native := callee.AsNative()
		result, err := native.Fn(args)
		if err != nil {
			return value.Nil, nil, throwf(in, loc, "%s", err.Error())
		}
		return result, nil, noSignal
	default:
		return value.Nil, nil, throwf(in, loc, "cannot call a value of type %s", callee.TypeName())
	}
}

// hostLoc is the synthetic source location stamped on host-driven calls
// (Call/CallValue), which have no script-side call site of their own.
var hostLoc = ast.SourceLocation{}

// Call looks up name in globals and invokes it with args, pushing a
// synthetic "(host)" stack frame, per the embedding API's
// call(vm, name, argc, argv, &out).
func (in *Interpreter) Call(name string, args []value.Value) (value.Value, error) {
	callee, ok := in.Globals.Get(name)
	if !ok {
		return value.Nil, fmt.Errorf("undefined function %q", name)
	}
	return in.CallValue(callee, args)
}

// CallValue invokes an already-resolved callee with args, per
// call_value(vm, callee, argc, argv, &out). An uncaught script throw
// becomes a plain Go error, matching vm_last_error's contract that a
// failed call leaves a message for the host to read.
func (in *Interpreter) CallValue(callee value.Value, args []value.Value) (value.Value, error) {
	in.pushFrame("(host)", hostLoc)
	defer in.popFrame()

	result, abort, sig := in.invokeValue(callee, args, hostLoc)
	if abort != nil {
		return value.Nil, abort.err
	}
	if sig.kind == sigThrow {
		return value.Nil, in.uncaughtThrow(sig.value, hostLoc)
	}
	return result, nil
}

func (in *Interpreter) invokeFunc(fn *value.Func, args []value.Value, loc ast.SourceLocation) (value.Value, *abortError, signal) {
	if len(args) != len(fn.Params) {
		return value.Nil, nil, throwf(in, loc, "function %s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}

	closureEnv, ok := fn.Closure.(*environment.Environment)
	if !ok {
		return value.Nil, &abortError{in.newRuntimeError(loc, "corrupt function closure")}, noSignal
	}
	callEnv := closureEnv.Child()
	for i, p := range fn.Params {
		_ = callEnv.Define(p, args[i], false)
	}

	name := fn.Name
	if name == "" {
		name = "<anonymous>"
	}
	in.pushFrame(name, loc)
	defer in.popFrame()

	result, abort := in.execBlock(fn.Body, callEnv)
	if abort != nil {
		return value.Nil, abort, noSignal
	}
	switch result.kind {
	case sigReturn:
		return result.value, nil, noSignal
	case sigThrow:
		return value.Nil, nil, result
	default:
		return value.Nil, nil, noSignal
	}
}
