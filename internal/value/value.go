// Package value implements the CupidScript tagged value model: a small
// fixed set of kinds backed either by an immediate Go scalar or by a
// heap object, mirroring the embedding API's cs_value/cs_type split so
// the interpreter and the C-shaped embedding layer agree on exactly what
// a value is. Heap objects are garbage-collected by Go rather than
// manually refcounted; see the Value doc comment.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the tag discriminating a Value's payload, grounded 1:1 on the
// embedding API's cs_type enumeration (CS_T_NIL..CS_T_NATIVE).
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindStrBuf
	KindRange
	KindFunc
	KindNative
	KindPromise
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindStrBuf:
		return "strbuf"
	case KindRange:
		return "range"
	case KindFunc:
		return "function"
	case KindNative:
		return "native"
	case KindPromise:
		return "promise"
	default:
		return "unknown"
	}
}

// Value is the tagged union the interpreter passes around. It is always
// passed by value (like cs_value); heap-kinded values share the same
// underlying object (*String, *List, *Map, *StrBuf, *Range, *Func,
// *Native, *Promise) until explicitly copied.
//
// The original this was distilled from manages that heap manually, by
// refcounting. This runtime doesn't: Go's garbage collector is the sole
// memory-management mechanism (see the deviation note in DESIGN.md).
// Threading Retain/Release calls through every container mutation,
// environment binding, and closure capture would buy nothing here, since
// nothing ever frees early or needs to detect use-after-free.
type Value struct {
	Kind Kind
	b    bool
	i    int64
	f    float64
	obj  interface{}
}

// Nil is the canonical nil value.
var Nil = Value{Kind: KindNil}

func Bool(v bool) Value  { return Value{Kind: KindBool, b: v} }
func Int(v int64) Value  { return Value{Kind: KindInt, i: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, f: v} }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsFloat() float64 { return v.f }

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// Truthy implements the language's truthiness rule: nil and false are
// falsy; the integer/float zero and the empty string are falsy too (a
// deliberate widening beyond bool for ergonomic `if (count) {...}` checks);
// everything else, including empty lists/maps, is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.AsString().Len() != 0
	default:
		return true
	}
}

// TypeName renders the value's kind the way the `type()` builtin reports it.
func (v Value) TypeName() string { return v.Kind.String() }

// String renders v for interpolation/str()/print(), following the
// original cs_to_cstr stringification convention: ints with no fractional
// suffix, floats with Go's shortest round-trip form, lists/maps rendered
// recursively.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.AsString().Get()
	case KindList:
		return v.AsList().render()
	case KindMap:
		return v.AsMap().render()
	case KindStrBuf:
		return v.AsStrBuf().Get()
	case KindRange:
		return v.AsRange().render()
	case KindFunc:
		return "<function>"
	case KindNative:
		return "<native function>"
	case KindPromise:
		return "<promise>"
	default:
		return ""
	}
}

// Equal implements the language's `==`: heap containers compare by value
// (structural equality), strings by content, functions/natives/promises by
// identity (same underlying object).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		// int/float cross-kind equality is allowed: 1 == 1.0
		if a.Kind == KindInt && b.Kind == KindFloat {
			return float64(a.i) == b.f
		}
		if a.Kind == KindFloat && b.Kind == KindInt {
			return a.f == float64(b.i)
		}
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.AsString().Get() == b.AsString().Get()
	case KindList:
		return a.AsList().equal(b.AsList())
	case KindMap:
		return a.AsMap().equal(b.AsMap())
	case KindStrBuf:
		return a.obj == b.obj
	case KindRange:
		ra, rb := a.AsRange(), b.AsRange()
		return ra.Start == rb.Start && ra.End == rb.End && ra.Inclusive == rb.Inclusive
	default:
		return a.obj == b.obj
	}
}

// ---- String ----

// String is an immutable byte sequence.
type String struct {
	s string
}

func NewString(s string) Value {
	return Value{Kind: KindString, obj: &String{s: s}}
}

func (v Value) AsString() *String { return v.obj.(*String) }
func (s *String) Get() string     { return s.s }

// Len returns the byte length of s, per spec §3: "a string's len equals
// the byte count" — not a rune count, so e.g. "héllo" (one 2-byte UTF-8
// rune) reports 6, not 5.
func (s *String) Len() int { return len(s.s) }

// ---- List ----

// List is a dense, index-addressable, growable array of Values.
type List struct {
	items []Value
}

func NewList(items ...Value) Value {
	return Value{Kind: KindList, obj: &List{items: items}}
}

func (v Value) AsList() *List { return v.obj.(*List) }

func (l *List) Len() int { return len(l.items) }

func (l *List) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.items) {
		return Nil, false
	}
	return l.items[i], true
}

// Set writes at index i, auto-growing with nil-fill up to and including i,
// per the container-growth invariant.
func (l *List) Set(i int, val Value) bool {
	if i < 0 {
		return false
	}
	for i >= len(l.items) {
		l.items = append(l.items, Nil)
	}
	l.items[i] = val
	return true
}

func (l *List) Push(val Value) { l.items = append(l.items, val) }

func (l *List) Pop() (Value, bool) {
	if len(l.items) == 0 {
		return Nil, false
	}
	last := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	return last, true
}

func (l *List) Items() []Value { return l.items }

func (l *List) render() string {
	parts := make([]string, len(l.items))
	for i, it := range l.items {
		if it.Kind == KindString {
			parts[i] = strconv.Quote(it.AsString().Get())
		} else {
			parts[i] = it.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) equal(other *List) bool {
	if len(l.items) != len(other.items) {
		return false
	}
	for i := range l.items {
		if !Equal(l.items[i], other.items[i]) {
			return false
		}
	}
	return true
}

// ---- Map ----

// mapEntry preserves insertion order, mirroring cs_map_entry.
type mapEntry struct {
	key string
	val Value
}

// Map is an insertion-order-preserving string-keyed map with unique keys.
type Map struct {
	entries []mapEntry
	index   map[string]int
}

func NewMap() Value {
	return Value{Kind: KindMap, obj: &Map{index: make(map[string]int)}}
}

func (v Value) AsMap() *Map { return v.obj.(*Map) }

func (m *Map) Get(key string) (Value, bool) {
	idx, ok := m.index[key]
	if !ok {
		return Nil, false
	}
	return m.entries[idx].val, true
}

// Set inserts or overwrites key, preserving the original insertion
// position on overwrite.
func (m *Map) Set(key string, val Value) {
	if idx, ok := m.index[key]; ok {
		m.entries[idx].val = val
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, val: val})
}

func (m *Map) Delete(key string) bool {
	idx, ok := m.index[key]
	if !ok {
		return false
	}
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
	delete(m.index, key)
	for k, i := range m.index {
		if i > idx {
			m.index[k] = i - 1
		}
	}
	return true
}

func (m *Map) Len() int { return len(m.entries) }

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

func (m *Map) render() string {
	keys := make([]string, len(m.entries))
	copy(keys, m.Keys())
	sort.Strings(keys) // not used below: entries render in insertion order
	parts := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		parts = append(parts, fmt.Sprintf("%s: %s", e.key, e.val.String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (m *Map) equal(other *Map) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for _, e := range m.entries {
		ov, ok := other.Get(e.key)
		if !ok || !Equal(e.val, ov) {
			return false
		}
	}
	return true
}

// ---- StrBuf ----

// StrBuf is a mutable append-only byte buffer, distinct from the
// immutable String type.
type StrBuf struct {
	b strings.Builder
}

func NewStrBuf() Value {
	return Value{Kind: KindStrBuf, obj: &StrBuf{}}
}

func (v Value) AsStrBuf() *StrBuf { return v.obj.(*StrBuf) }

func (sb *StrBuf) Append(s string) { sb.b.WriteString(s) }
func (sb *StrBuf) Get() string     { return sb.b.String() }

// Len returns the byte length of the buffer's contents, matching
// String.Len's byte-count rule.
func (sb *StrBuf) Len() int { return sb.b.Len() }
func (sb *StrBuf) Clear()   { sb.b.Reset() }

// ---- Range ----

// Range is a lazy integer sequence [Start, End) or [Start, End] when
// Inclusive.
type Range struct {
	Start, End int64
	Inclusive  bool
}

func NewRange(start, end int64, inclusive bool) Value {
	return Value{Kind: KindRange, obj: &Range{Start: start, End: end, Inclusive: inclusive}}
}

func (v Value) AsRange() *Range { return v.obj.(*Range) }

// Len returns the number of integers the range yields.
func (r *Range) Len() int64 {
	if r.Inclusive {
		if r.End < r.Start {
			return 0
		}
		return r.End - r.Start + 1
	}
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// At returns the i-th element of the range.
func (r *Range) At(i int64) int64 { return r.Start + i }

func (r *Range) render() string {
	op := ".."
	if r.Inclusive {
		op = "..="
	}
	return fmt.Sprintf("%d%s%d", r.Start, op, r.End)
}
