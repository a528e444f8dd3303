package interpreter

import (
	"errors"
	"strings"

	"github.com/frankischilling/cupidscript/internal/async"
	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/value"
)

// evalExpr evaluates an expression. It returns a value plus either an
// abort (safety abort, never catchable) or a throw signal (catchable by
// an enclosing try). Exactly one of (abort != nil), (sig.kind == sigThrow),
// or a usable value is meaningful at a time.
func (in *Interpreter) evalExpr(expr ast.Expr, env *environment.Environment) (value.Value, *abortError, signal) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e.Value), nil, noSignal
	case *ast.RawStringExpr:
		return value.NewString(e.Value), nil, noSignal
	case *ast.InterpStringExpr:
		return in.evalInterpString(e, env)
	case *ast.IdentExpr:
		v, ok := env.Get(e.Name)
		if !ok {
			return value.Nil, nil, throwf(in, e.Loc, "undefined variable %q%s", e.Name, didYouMean(e.Name, env.VisibleNames()))
		}
		return v, nil, noSignal
	case *ast.ListExpr:
		return in.evalListExpr(e, env)
	case *ast.MapExpr:
		return in.evalMapExpr(e, env)
	case *ast.UnaryExpr:
		return in.evalUnaryExpr(e, env)
	case *ast.AwaitExpr:
		return in.evalAwaitExpr(e, env)
	case *ast.BinaryExpr:
		return in.evalBinaryExpr(e, env)
	case *ast.RangeExpr:
		return in.evalRangeExpr(e, env)
	case *ast.TernaryExpr:
		cond, abort, sig := in.evalExpr(e.Cond, env)
		if abort != nil || sig.kind == sigThrow {
			return value.Nil, abort, sig
		}
		if cond.Truthy() {
			return in.evalExpr(e.Then, env)
		}
		return in.evalExpr(e.Else, env)
	case *ast.NullCoalesceExpr:
		left, abort, sig := in.evalExpr(e.Left, env)
		if abort != nil || sig.kind == sigThrow {
			return value.Nil, abort, sig
		}
		if !left.IsNil() {
			return left, nil, noSignal
		}
		return in.evalExpr(e.Right, env)
	case *ast.IndexExpr:
		return in.evalIndexExpr(e, env)
	case *ast.FieldExpr:
		return in.evalFieldExpr(e, env)
	case *ast.CallExpr:
		return in.evalCallExpr(e, env)
	case *ast.FuncLitExpr:
		return value.NewFunc(e.Name, e.Params, e.Body, env), nil, noSignal
	case *ast.MatchExpr:
		return in.evalMatchExpr(e, env)
	default:
		return value.Nil, nil, throwf(in, expr.Location(), "unsupported expression type %T", expr)
	}
}

// throwf builds a sigThrow signal carrying a formatted runtime error
// message as a thrown string value, for errors the interpreter itself
// raises (as opposed to explicit `throw`).
func throwf(in *Interpreter, loc ast.SourceLocation, format string, args ...interface{}) signal {
	msg := in.newRuntimeError(loc, format, args...).Error()
	return signal{kind: sigThrow, value: value.NewString(msg)}
}

func literalValue(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Nil
	case bool:
		return value.Bool(x)
	case int64:
		return value.Int(x)
	case float64:
		return value.Float(x)
	case string:
		return value.NewString(x)
	default:
		return value.Nil
	}
}

func (in *Interpreter) evalInterpString(e *ast.InterpStringExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	var b strings.Builder
	b.WriteString(e.Parts[0])
	for i, sub := range e.Exprs {
		v, abort, sig := in.evalExpr(sub, env)
		if abort != nil || sig.kind == sigThrow {
			return value.Nil, abort, sig
		}
		b.WriteString(v.String())
		b.WriteString(e.Parts[i+1])
	}
	return value.NewString(b.String()), nil, noSignal
}

func (in *Interpreter) evalListExpr(e *ast.ListExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	items := make([]value.Value, 0, len(e.Elements))
	for _, elemExpr := range e.Elements {
		v, abort, sig := in.evalExpr(elemExpr, env)
		if abort != nil || sig.kind == sigThrow {
			return value.Nil, abort, sig
		}
		items = append(items, v)
	}
	return value.NewList(items...), nil, noSignal
}

func (in *Interpreter) evalMapExpr(e *ast.MapExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	m := value.NewMap()
	for _, entry := range e.Entries {
		v, abort, sig := in.evalExpr(entry.Value, env)
		if abort != nil || sig.kind == sigThrow {
			return value.Nil, abort, sig
		}
		m.AsMap().Set(entry.Key, v)
	}
	return m, nil, noSignal
}

func (in *Interpreter) evalUnaryExpr(e *ast.UnaryExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	operand, abort, sig := in.evalExpr(e.Operand, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	switch e.Op {
	case "!":
		return value.Bool(!operand.Truthy()), nil, noSignal
	case "-":
		switch operand.Kind {
		case value.KindInt:
			return value.Int(-operand.AsInt()), nil, noSignal
		case value.KindFloat:
			return value.Float(-operand.AsFloat()), nil, noSignal
		default:
			return value.Nil, nil, throwf(in, e.Loc, "unary '-' requires a number, got %s", operand.TypeName())
		}
	default:
		return value.Nil, nil, throwf(in, e.Loc, "unknown unary operator %q", e.Op)
	}
}

// evalAwaitExpr pumps the event loop (internal/async) until Operand — which
// must evaluate to a promise — settles, then unwraps it: a fulfilled
// promise yields its result value, a rejected one becomes a catchable
// throw of its rejection value, per spec §4.4.
func (in *Interpreter) evalAwaitExpr(e *ast.AwaitExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	operand, abort, sig := in.evalExpr(e.Operand, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	if operand.Kind != value.KindPromise {
		return value.Nil, nil, throwf(in, e.Loc, "await requires a promise, got %s", operand.TypeName())
	}
	p := operand.AsPromise()

	if err := in.Async.Drain(p, in.abortCheck(e.Loc)); err != nil {
		var abortSignal *async.AbortError
		if errors.As(err, &abortSignal) {
			return value.Nil, &abortError{in.newRuntimeError(e.Loc, "%s", abortSignal.Error())}, noSignal
		}
		return value.Nil, nil, throwf(in, e.Loc, "%s", err.Error())
	}

	switch p.State {
	case value.PromiseRejected:
		return value.Nil, nil, signal{kind: sigThrow, value: p.Result}
	default:
		return p.Result, nil, noSignal
	}
}

func (in *Interpreter) evalRangeExpr(e *ast.RangeExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	start, abort, sig := in.evalExpr(e.Start, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	end, abort, sig := in.evalExpr(e.End, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	if start.Kind != value.KindInt || end.Kind != value.KindInt {
		return value.Nil, nil, throwf(in, e.Loc, "range bounds must be integers")
	}
	return value.NewRange(start.AsInt(), end.AsInt(), e.Inclusive), nil, noSignal
}

func (in *Interpreter) evalIndexExpr(e *ast.IndexExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	target, abort, sig := in.evalExpr(e.Target, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	idx, abort, sig := in.evalExpr(e.Index, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	return in.indexValue(target, idx, e.Loc)
}

func (in *Interpreter) indexValue(target, idx value.Value, loc ast.SourceLocation) (value.Value, *abortError, signal) {
	switch target.Kind {
	case value.KindList:
		if idx.Kind != value.KindInt || idx.AsInt() < 0 {
			return value.Nil, nil, throwf(in, loc, "list index must be a non-negative integer")
		}
		v, ok := target.AsList().Get(int(idx.AsInt()))
		if !ok {
			return value.Nil, nil, noSignal
		}
		return v, nil, noSignal
	case value.KindMap:
		if idx.Kind != value.KindString {
			return value.Nil, nil, throwf(in, loc, "map index must be a string")
		}
		v, _ := target.AsMap().Get(idx.AsString().Get())
		return v, nil, noSignal
	case value.KindString:
		if idx.Kind != value.KindInt || idx.AsInt() < 0 {
			return value.Nil, nil, throwf(in, loc, "string index must be a non-negative integer")
		}
		runes := []rune(target.AsString().Get())
		i := int(idx.AsInt())
		if i >= len(runes) {
			return value.Nil, nil, throwf(in, loc, "string index out of range")
		}
		return value.NewString(string(runes[i])), nil, noSignal
	default:
		return value.Nil, nil, throwf(in, loc, "cannot index into %s", target.TypeName())
	}
}

func (in *Interpreter) evalFieldExpr(e *ast.FieldExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	target, abort, sig := in.evalExpr(e.Target, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	if target.IsNil() && e.Optional {
		return value.Nil, nil, noSignal
	}
	if target.Kind == value.KindMap {
		v, ok := target.AsMap().Get(e.Field)
		if ok {
			return v, nil, noSignal
		}
	}
	return value.Nil, nil, throwf(in, e.Loc, "no field %q on %s", e.Field, target.TypeName())
}
