// Package environment implements CupidScript's lexically-scoped variable
// bindings: a chain of parent-linked scopes, each an ordered set of
// (name, value, is_const) entries, searched outward on lookup.
package environment

import (
	"fmt"

	"github.com/frankischilling/cupidscript/internal/value"
)

// binding is one entry in a scope, in declaration order.
type binding struct {
	name    string
	val     value.Value
	isConst bool
}

// Environment is one lexical scope. A closure keeps its captured scope
// alive simply by holding a Go pointer to it; Go's garbage collector does
// the rest (see the deviation note in DESIGN.md — this runtime does not
// refcount).
type Environment struct {
	parent *Environment
	order  []string
	vars   map[string]*binding
}

// New creates a root environment with no parent (the global scope).
func New() *Environment {
	return &Environment{vars: make(map[string]*binding)}
}

// Child creates a new scope whose lookups fall back to e.
func (e *Environment) Child() *Environment {
	return &Environment{parent: e, vars: make(map[string]*binding)}
}

// Define binds name in the current scope. Redeclaring an existing name in
// the SAME scope is an error (shadowing in a child scope is allowed and is
// the normal way loop bodies/functions introduce fresh bindings).
func (e *Environment) Define(name string, v value.Value, isConst bool) error {
	if _, exists := e.vars[name]; exists {
		return fmt.Errorf("%q is already declared in this scope", name)
	}
	e.vars[name] = &binding{name: name, val: v, isConst: isConst}
	e.order = append(e.order, name)
	return nil
}

// Get looks up name, walking the parent chain outward.
func (e *Environment) Get(name string) (value.Value, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			return b.val, true
		}
	}
	return value.Nil, false
}

// IsConst reports whether name (found anywhere in the chain) was declared
// with `const`.
func (e *Environment) IsConst(name string) bool {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			return b.isConst
		}
	}
	return false
}

// Assign walks up the chain to find the declaring scope and overwrites the
// binding there, enforcing const-reassignment as an error. Returns false
// if name is not bound anywhere in the chain; the interpreter's assignIdent
// then binds it in the current scope (there is no strict mode).
func (e *Environment) Assign(name string, v value.Value) (bool, error) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			if b.isConst {
				return true, fmt.Errorf("cannot assign to const %q", name)
			}
			b.val = v
			return true, nil
		}
	}
	return false, nil
}

// Names returns this scope's own bound names, in declaration order
// (excluding parent scopes). Used by VisibleNames and by the REPL's
// `:globals` command.
func (e *Environment) Names() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// VisibleNames returns every name bound anywhere in the chain from e
// outward to the root, innermost scopes first. Used to build "did you
// mean" suggestions for undefined-variable errors.
func (e *Environment) VisibleNames() []string {
	var out []string
	for env := e; env != nil; env = env.parent {
		out = append(out, env.Names()...)
	}
	return out
}
