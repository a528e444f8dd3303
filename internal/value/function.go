package value

import "github.com/frankischilling/cupidscript/internal/compiler/ast"

// Env is the subset of environment.Environment a closure needs to capture
// its defining scope. Defined here (rather than imported) to avoid an
// import cycle between value and environment: environment depends on
// value for Value, not the other way around.
type Env interface {
	Define(name string, v Value, isConst bool) error
	Get(name string) (Value, bool)
}

// Func is a script-defined function value: parameters, body, and the
// environment captured at the point of definition (its closure).
type Func struct {
	Name    string
	Params  []string
	Body    *ast.BlockStmt
	Closure Env
}

func NewFunc(name string, params []string, body *ast.BlockStmt, closure Env) Value {
	return Value{Kind: KindFunc, obj: &Func{Name: name, Params: params, Body: body, Closure: closure}}
}

func (v Value) AsFunc() *Func { return v.obj.(*Func) }

// NativeFn is the Go-side signature a host-registered native function
// implements, mirroring cs_native_fn's (vm, userdata, argv) -> (result, error)
// contract.
type NativeFn func(args []Value) (Value, error)

// Native wraps a host function pointer plus opaque userdata, exactly as
// cs_native does.
type Native struct {
	Name     string
	Fn       NativeFn
	Userdata interface{}
}

func NewNative(name string, fn NativeFn, userdata interface{}) Value {
	return Value{Kind: KindNative, obj: &Native{Name: name, Fn: fn, Userdata: userdata}}
}

func (v Value) AsNative() *Native { return v.obj.(*Native) }

// PromiseState is one of the three one-way states a Promise can settle into.
type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// Promise is the async subsystem's single coordination primitive: pending
// until resolved or rejected exactly once, after which settlement is
// immutable and every registered continuation fires in registration order.
type Promise struct {
	State         PromiseState
	Result        Value
	onFulfillment []func(Value)
	onRejection   []func(Value)
}

func NewPromise() Value {
	return Value{Kind: KindPromise, obj: &Promise{State: PromisePending}}
}

func (v Value) AsPromise() *Promise { return v.obj.(*Promise) }

// Resolve settles the promise as fulfilled. A second call is a no-op:
// settlement is one-way and idempotent.
func (p *Promise) Resolve(val Value) {
	if p.State != PromisePending {
		return
	}
	p.State = PromiseFulfilled
	p.Result = val
	callbacks := p.onFulfillment
	p.onFulfillment = nil
	p.onRejection = nil
	for _, cb := range callbacks {
		cb(val)
	}
}

// Reject settles the promise as rejected. A second call is a no-op.
func (p *Promise) Reject(val Value) {
	if p.State != PromisePending {
		return
	}
	p.State = PromiseRejected
	p.Result = val
	callbacks := p.onRejection
	p.onFulfillment = nil
	p.onRejection = nil
	for _, cb := range callbacks {
		cb(val)
	}
}

// OnSettle registers continuations run in registration order; if the
// promise has already settled, the relevant one fires immediately.
func (p *Promise) OnSettle(onFulfilled, onRejected func(Value)) {
	switch p.State {
	case PromiseFulfilled:
		onFulfilled(p.Result)
	case PromiseRejected:
		onRejected(p.Result)
	default:
		p.onFulfillment = append(p.onFulfillment, onFulfilled)
		p.onRejection = append(p.onRejection, onRejected)
	}
}
