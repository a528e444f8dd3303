package interpreter

import (
	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/value"
)

// deferredCall is a defer's callee and pre-evaluated arguments, captured at
// the `defer` statement so later block-exit invocation sees the state at
// defer-time, not at exit-time.
type deferredCall struct {
	callee value.Value
	args   []value.Value
	loc    ast.SourceLocation
}

// execBlock runs a *ast.BlockStmt in a fresh child scope.
func (in *Interpreter) execBlock(block *ast.BlockStmt, parent *environment.Environment) (signal, *abortError) {
	return in.execBlockStatements(block.Statements, parent.Child())
}

// execBlockStatements runs stmts in env, accumulating defers declared
// directly in this block and running them LIFO on every exit path.
func (in *Interpreter) execBlockStatements(stmts []ast.Stmt, env *environment.Environment) (signal, *abortError) {
	var defers []deferredCall
	result := noSignal

	for _, stmt := range stmts {
		if ds, ok := stmt.(*ast.DeferStmt); ok {
			call, abort := in.evalDeferCall(ds, env)
			if abort != nil {
				return in.runDefers(defers, noSignal, abort)
			}
			defers = append(defers, call)
			continue
		}

		sig, abort := in.execStmt(stmt, env)
		if abort != nil {
			return in.runDefers(defers, noSignal, abort)
		}
		if sig.kind != sigNone {
			result = sig
			break
		}
	}

	return in.runDefers(defers, result, nil)
}

// runDefers executes defers LIFO regardless of how the block is exiting,
// then returns the block's outcome (a later defer's throw overrides an
// in-flight return/throw, matching Go's own defer-panic interplay).
func (in *Interpreter) runDefers(defers []deferredCall, result signal, abort *abortError) (signal, *abortError) {
	for i := len(defers) - 1; i >= 0; i-- {
		d := defers[i]
		if abort != nil {
			continue // a prior abort always wins; still unwind the rest without running them
		}
		_, callErr, thrown := in.invokeValue(d.callee, d.args, d.loc)
		if callErr != nil {
			abort = callErr
			continue
		}
		if thrown.kind == sigThrow {
			result = thrown
		}
	}
	return result, abort
}

func (in *Interpreter) evalDeferCall(ds *ast.DeferStmt, env *environment.Environment) (deferredCall, *abortError) {
	call, ok := ds.Call.(*ast.CallExpr)
	if !ok {
		// defer on a non-call expression: evaluate it immediately for
		// side effect and defer a no-op.
		_, abort := in.evalExprDiscardThrow(ds.Call, env)
		return deferredCall{}, abort
	}
	callee, _, abort := in.evalCallee(call.Callee, env)
	if abort != nil {
		return deferredCall{}, abort
	}
	args, abort, sig := in.evalArgs(call.Args, env)
	if abort != nil {
		return deferredCall{}, abort
	}
	if sig.kind == sigThrow {
		return deferredCall{}, &abortError{in.newRuntimeError(ds.Loc, "%s", sig.value.String())}
	}
	return deferredCall{callee: callee, args: args, loc: ds.Loc}, nil
}

// evalExprDiscardThrow evaluates expr purely for its side effect, ignoring
// a thrown signal (used for `defer <non-call>`, an edge case the grammar
// allows but that has no sensible deferred-call semantics).
func (in *Interpreter) evalExprDiscardThrow(expr ast.Expr, env *environment.Environment) (value.Value, *abortError) {
	v, abort, _ := in.evalExpr(expr, env)
	return v, abort
}

// execStmt runs one statement, checking the safepoint first.
func (in *Interpreter) execStmt(stmt ast.Stmt, env *environment.Environment) (signal, *abortError) {
	if abort := in.checkSafepoint(stmt.Location()); abort != nil {
		return noSignal, abort
	}

	switch s := stmt.(type) {
	case *ast.LetStmt:
		return in.execLetStmt(s, env)
	case *ast.ExprStmt:
		_, abort, sig := in.evalExpr(s.Expr, env)
		return sig, abort
	case *ast.AssignStmt:
		return in.execAssignStmt(s, env)
	case *ast.BlockStmt:
		return in.execBlock(s, env)
	case *ast.IfStmt:
		return in.execIfStmt(s, env)
	case *ast.WhileStmt:
		return in.execWhileStmt(s, env)
	case *ast.ForStmt:
		return in.execForStmt(s, env)
	case *ast.ForInStmt:
		return in.execForInStmt(s, env)
	case *ast.ReturnStmt:
		if s.Value == nil {
			return signal{kind: sigReturn, value: value.Nil}, nil
		}
		v, abort, sig := in.evalExpr(s.Value, env)
		if abort != nil || sig.kind == sigThrow {
			return sig, abort
		}
		return signal{kind: sigReturn, value: v}, nil
	case *ast.BreakStmt:
		return signal{kind: sigBreak}, nil
	case *ast.ContinueStmt:
		return signal{kind: sigContinue}, nil
	case *ast.FnDeclStmt:
		fn := value.NewFunc(s.Name, s.Params, s.Body, env)
		if err := env.Define(s.Name, fn, false); err != nil {
			return noSignal, &abortError{in.newRuntimeError(s.Loc, "%s", err.Error())}
		}
		return noSignal, nil
	case *ast.SwitchStmt:
		return in.execSwitchStmt(s, env)
	case *ast.ThrowStmt:
		v, abort, sig := in.evalExpr(s.Value, env)
		if abort != nil || sig.kind == sigThrow {
			return sig, abort
		}
		return signal{kind: sigThrow, value: v}, nil
	case *ast.TryStmt:
		return in.execTryStmt(s, env)
	case *ast.ImportStmt, *ast.ExportStmt:
		// Module resolution is a host/loader concern (§6): the
		// interpreter only needs to not choke on the statement when a
		// script is run standalone outside a module loader.
		return noSignal, nil
	default:
		return noSignal, &abortError{in.newRuntimeError(stmt.Location(), "unsupported statement type %T", stmt)}
	}
}

func (in *Interpreter) execLetStmt(s *ast.LetStmt, env *environment.Environment) (signal, *abortError) {
	v, abort, sig := in.evalExpr(s.Value, env)
	if abort != nil || sig.kind == sigThrow {
		return sig, abort
	}
	if err := in.bindPattern(s.Pattern, v, env, s.IsConst); err != nil {
		return noSignal, &abortError{in.newRuntimeError(s.Loc, "%s", err.Error())}
	}
	return noSignal, nil
}

func (in *Interpreter) execIfStmt(s *ast.IfStmt, env *environment.Environment) (signal, *abortError) {
	cond, abort, sig := in.evalExpr(s.Cond, env)
	if abort != nil || sig.kind == sigThrow {
		return sig, abort
	}
	if cond.Truthy() {
		return in.execBlock(s.Then, env)
	}
	if s.Else != nil {
		return in.execStmt(s.Else, env)
	}
	return noSignal, nil
}

func (in *Interpreter) execWhileStmt(s *ast.WhileStmt, env *environment.Environment) (signal, *abortError) {
	for {
		if abort := in.checkSafepoint(s.Loc); abort != nil {
			return noSignal, abort
		}
		cond, abort, sig := in.evalExpr(s.Cond, env)
		if abort != nil || sig.kind == sigThrow {
			return sig, abort
		}
		if !cond.Truthy() {
			return noSignal, nil
		}
		bsig, abort := in.execBlock(s.Body, env)
		if abort != nil {
			return noSignal, abort
		}
		switch bsig.kind {
		case sigBreak:
			return noSignal, nil
		case sigReturn, sigThrow:
			return bsig, nil
		}
	}
}

func (in *Interpreter) execForStmt(s *ast.ForStmt, env *environment.Environment) (signal, *abortError) {
	loopEnv := env.Child()
	if s.Init != nil {
		sig, abort := in.execStmt(s.Init, loopEnv)
		if abort != nil || sig.kind != sigNone {
			return sig, abort
		}
	}
	for {
		if abort := in.checkSafepoint(s.Loc); abort != nil {
			return noSignal, abort
		}
		if s.Cond != nil {
			cond, abort, sig := in.evalExpr(s.Cond, loopEnv)
			if abort != nil || sig.kind == sigThrow {
				return sig, abort
			}
			if !cond.Truthy() {
				return noSignal, nil
			}
		}
		bsig, abort := in.execBlock(s.Body, loopEnv)
		if abort != nil {
			return noSignal, abort
		}
		if bsig.kind == sigBreak {
			return noSignal, nil
		}
		if bsig.kind == sigReturn || bsig.kind == sigThrow {
			return bsig, nil
		}
		if s.Incr != nil {
			sig, abort := in.execStmt(s.Incr, loopEnv)
			if abort != nil || sig.kind != sigNone {
				return sig, abort
			}
		}
	}
}

func (in *Interpreter) execForInStmt(s *ast.ForInStmt, env *environment.Environment) (signal, *abortError) {
	iterable, abort, sig := in.evalExpr(s.Iterable, env)
	if abort != nil || sig.kind == sigThrow {
		return sig, abort
	}

	run := func(item value.Value) (signal, *abortError, bool) {
		if abort := in.checkSafepoint(s.Loc); abort != nil {
			return noSignal, abort, true
		}
		iterEnv := env.Child()
		_ = iterEnv.Define(s.Name, item, false)
		bsig, abort := in.execBlock(s.Body, iterEnv)
		if abort != nil {
			return noSignal, abort, true
		}
		switch bsig.kind {
		case sigBreak:
			return noSignal, nil, true
		case sigReturn, sigThrow:
			return bsig, nil, true
		}
		return noSignal, nil, false
	}

	switch iterable.Kind {
	case value.KindRange:
		r := iterable.AsRange()
		n := r.Len()
		for i := int64(0); i < n; i++ {
			if sg, abort, stop := run(value.Int(r.At(i))); stop {
				return sg, abort
			}
		}
	case value.KindList:
		for _, item := range iterable.AsList().Items() {
			if sg, abort, stop := run(item); stop {
				return sg, abort
			}
		}
	case value.KindMap:
		for _, key := range iterable.AsMap().Keys() {
			if sg, abort, stop := run(value.NewString(key)); stop {
				return sg, abort
			}
		}
	case value.KindString:
		for _, r := range iterable.AsString().Get() {
			if sg, abort, stop := run(value.NewString(string(r))); stop {
				return sg, abort
			}
		}
	default:
		return noSignal, &abortError{in.newRuntimeError(s.Loc, "cannot iterate over %s", iterable.TypeName())}
	}
	return noSignal, nil
}

func (in *Interpreter) execSwitchStmt(s *ast.SwitchStmt, env *environment.Environment) (signal, *abortError) {
	subject, abort, sig := in.evalExpr(s.Subject, env)
	if abort != nil || sig.kind == sigThrow {
		return sig, abort
	}

	var defaultCase *ast.SwitchCase
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.IsDefault {
			defaultCase = c
			continue
		}
		for _, valExpr := range c.Values {
			cv, abort, sig := in.evalExpr(valExpr, env)
			if abort != nil || sig.kind == sigThrow {
				return sig, abort
			}
			if value.Equal(subject, cv) {
				return in.execBlockStatements(c.Body, env.Child())
			}
		}
	}
	if defaultCase != nil {
		return in.execBlockStatements(defaultCase.Body, env.Child())
	}
	return noSignal, nil
}

func (in *Interpreter) execTryStmt(s *ast.TryStmt, env *environment.Environment) (signal, *abortError) {
	sig, abort := in.execBlock(s.Body, env)
	if abort != nil {
		// Safety aborts are never catchable.
		return in.runFinally(s, env, noSignal, abort)
	}
	if sig.kind == sigThrow && s.HasCatch {
		catchEnv := env.Child()
		_ = catchEnv.Define(s.CatchName, sig.value, false)
		sig, abort = in.execBlockStatements(s.Catch.Statements, catchEnv)
	}
	return in.runFinally(s, env, sig, abort)
}

func (in *Interpreter) runFinally(s *ast.TryStmt, env *environment.Environment, sig signal, abort *abortError) (signal, *abortError) {
	if !s.HasFinally {
		return sig, abort
	}
	fsig, fabort := in.execBlock(s.Finally, env)
	if fabort != nil {
		return noSignal, fabort
	}
	if fsig.kind != sigNone {
		// A finally that itself returns/breaks/throws overrides the
		// try/catch outcome, matching common try/finally semantics.
		return fsig, nil
	}
	return sig, abort
}
