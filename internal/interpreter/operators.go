package interpreter

import (
	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/value"
)

func (in *Interpreter) evalBinaryExpr(e *ast.BinaryExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	// && and || short-circuit, so the right side is evaluated lazily.
	if e.Op == "&&" || e.Op == "||" {
		left, abort, sig := in.evalExpr(e.Left, env)
		if abort != nil || sig.kind == sigThrow {
			return value.Nil, abort, sig
		}
		if e.Op == "&&" && !left.Truthy() {
			return value.Bool(false), nil, noSignal
		}
		if e.Op == "||" && left.Truthy() {
			return value.Bool(true), nil, noSignal
		}
		right, abort, sig := in.evalExpr(e.Right, env)
		if abort != nil || sig.kind == sigThrow {
			return value.Nil, abort, sig
		}
		return value.Bool(right.Truthy()), nil, noSignal
	}

	left, abort, sig := in.evalExpr(e.Left, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	right, abort, sig := in.evalExpr(e.Right, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}
	return in.applyBinary(e.Op, left, right, e.Loc)
}

func (in *Interpreter) applyBinary(op string, left, right value.Value, loc ast.SourceLocation) (value.Value, *abortError, signal) {
	switch op {
	case "+":
		return in.evalAdd(left, right, loc)
	case "-", "*", "/", "%":
		return in.evalArith(op, left, right, loc)
	case "==":
		return value.Bool(value.Equal(left, right)), nil, noSignal
	case "!=":
		return value.Bool(!value.Equal(left, right)), nil, noSignal
	case "<", "<=", ">", ">=":
		return in.evalCompare(op, left, right, loc)
	default:
		return value.Nil, nil, throwf(in, loc, "unknown binary operator %q", op)
	}
}

// evalAdd implements `+`: numeric addition (widening int/float per the
// mixed-numeric policy), or concatenation whenever either side is a string.
func (in *Interpreter) evalAdd(left, right value.Value, loc ast.SourceLocation) (value.Value, *abortError, signal) {
	if left.Kind == value.KindString || right.Kind == value.KindString {
		return value.NewString(left.String() + right.String()), nil, noSignal
	}
	if left.Kind == value.KindInt && right.Kind == value.KindInt {
		return value.Int(left.AsInt() + right.AsInt()), nil, noSignal
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return value.Nil, nil, throwf(in, loc, "'+' requires numbers or strings, got %s and %s", left.TypeName(), right.TypeName())
	}
	return value.Float(lf + rf), nil, noSignal
}

// evalArith implements `- * / %`. Per the int/float mixing policy: if
// either operand is float, the result widens to float; int/int division
// and modulo are integer operations, both erroring on a zero divisor.
func (in *Interpreter) evalArith(op string, left, right value.Value, loc ast.SourceLocation) (value.Value, *abortError, signal) {
	if left.Kind == value.KindInt && right.Kind == value.KindInt {
		a, b := left.AsInt(), right.AsInt()
		switch op {
		case "-":
			return value.Int(a - b), nil, noSignal
		case "*":
			return value.Int(a * b), nil, noSignal
		case "/":
			if b == 0 {
				return value.Nil, nil, throwf(in, loc, "division by zero")
			}
			return value.Int(a / b), nil, noSignal
		case "%":
			if b == 0 {
				return value.Nil, nil, throwf(in, loc, "modulo by zero")
			}
			return value.Int(a % b), nil, noSignal
		}
	}

	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return value.Nil, nil, throwf(in, loc, "'%s' requires numbers, got %s and %s", op, left.TypeName(), right.TypeName())
	}
	switch op {
	case "-":
		return value.Float(lf - rf), nil, noSignal
	case "*":
		return value.Float(lf * rf), nil, noSignal
	case "/":
		if rf == 0 {
			return value.Nil, nil, throwf(in, loc, "division by zero")
		}
		return value.Float(lf / rf), nil, noSignal
	case "%":
		return value.Nil, nil, throwf(in, loc, "'%%' requires integer operands")
	}
	return value.Nil, nil, throwf(in, loc, "unknown arithmetic operator %q", op)
}

// evalCompare implements ordering operators: two numbers, compared
// numerically (with int/float widening), or two strings, compared
// byte-lexicographically.
func (in *Interpreter) evalCompare(op string, left, right value.Value, loc ast.SourceLocation) (value.Value, *abortError, signal) {
	if left.Kind == value.KindString && right.Kind == value.KindString {
		a, b := left.AsString().Get(), right.AsString().Get()
		return value.Bool(compareOrdered(op, a < b, a == b, a > b)), nil, noSignal
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return value.Nil, nil, throwf(in, loc, "'%s' requires two numbers or two strings", op)
	}
	return value.Bool(compareOrdered(op, lf < rf, lf == rf, lf > rf)), nil, noSignal
}

func compareOrdered(op string, lt, eq, gt bool) bool {
	switch op {
	case "<":
		return lt
	case "<=":
		return lt || eq
	case ">":
		return gt
	case ">=":
		return gt || eq
	}
	return false
}

func asFloat(v value.Value) (float64, bool) {
	switch v.Kind {
	case value.KindInt:
		return float64(v.AsInt()), true
	case value.KindFloat:
		return v.AsFloat(), true
	default:
		return 0, false
	}
}
