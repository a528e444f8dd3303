package interpreter

import (
	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/value"
)

// evalMatchExpr evaluates Subject once and returns the Value of the first
// case whose Pattern matches and whose Guard (if any) is truthy. An
// unmatched subject with no default arm is a runtime error.
func (in *Interpreter) evalMatchExpr(e *ast.MatchExpr, env *environment.Environment) (value.Value, *abortError, signal) {
	subject, abort, sig := in.evalExpr(e.Subject, env)
	if abort != nil || sig.kind == sigThrow {
		return value.Nil, abort, sig
	}

	for _, c := range e.Cases {
		if c.Pattern == nil { // default
			continue
		}
		caseEnv := env.Child()
		matched, err := in.matchPattern(c.Pattern, subject, caseEnv)
		if err != nil {
			return value.Nil, nil, throwf(in, e.Loc, "%s", err.Error())
		}
		if !matched {
			continue
		}
		if c.Guard != nil {
			g, abort, sig := in.evalExpr(c.Guard, caseEnv)
			if abort != nil {
				return value.Nil, abort, sig
			}
			if sig.kind == sigThrow {
				// A throwing guard means "this case does not match", same
				// as a throwing literal pattern above: fall through to the
				// next case rather than propagating.
				continue
			}
			if !g.Truthy() {
				continue
			}
		}
		return in.evalExpr(c.Value, caseEnv)
	}

	for _, c := range e.Cases {
		if c.Pattern == nil {
			return in.evalExpr(c.Value, env.Child())
		}
	}

	return value.Nil, nil, throwf(in, e.Loc, "no match case matched and no default arm is present")
}

// matchPattern tests v against pattern, binding names into env on success.
// Used by `match` only; `let`/`const` destructuring goes through
// bindPattern, which has no literal patterns.
func (in *Interpreter) matchPattern(pattern ast.Pattern, v value.Value, env *environment.Environment) (bool, error) {
	switch p := pattern.(type) {
	case *ast.WildcardPattern:
		return true, nil
	case *ast.IdentPattern:
		_ = env.Define(p.Name, v, false)
		return true, nil
	case *ast.LiteralPattern:
		lit, abort, sig := in.evalExpr(p.Value, env)
		if abort != nil {
			return false, abort.err
		}
		if sig.kind == sigThrow {
			return false, nil
		}
		return value.Equal(lit, v), nil
	case *ast.ListPattern:
		if v.Kind != value.KindList {
			return false, nil
		}
		list := v.AsList()
		if list.Len() != len(p.Elements) {
			return false, nil
		}
		for i, elemPat := range p.Elements {
			item, _ := list.Get(i)
			matched, err := in.matchPattern(elemPat, item, env)
			if err != nil || !matched {
				return false, err
			}
		}
		return true, nil
	case *ast.MapPattern:
		if v.Kind != value.KindMap {
			return false, nil
		}
		m := v.AsMap()
		for _, field := range p.Fields {
			fv, ok := m.Get(field.Key)
			if !ok {
				return false, nil
			}
			_ = env.Define(field.Local, fv, false)
		}
		return true, nil
	default:
		return false, nil
	}
}
