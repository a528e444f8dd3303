package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue_Truthiness(t *testing.T) {
	require.False(t, Nil.Truthy())
	require.False(t, Bool(false).Truthy())
	require.True(t, Bool(true).Truthy())
	require.False(t, Int(0).Truthy())
	require.True(t, Int(1).Truthy())
	require.False(t, Float(0).Truthy())
	require.False(t, NewString("").Truthy())
	require.True(t, NewString("x").Truthy())
	require.True(t, NewList().Truthy())
}

func TestValue_EqualityCrossNumeric(t *testing.T) {
	require.True(t, Equal(Int(1), Float(1.0)))
	require.True(t, Equal(Float(2.5), Float(2.5)))
	require.False(t, Equal(Int(1), Int(2)))
	require.False(t, Equal(Int(1), NewString("1")))
}

func TestValue_StringEquality(t *testing.T) {
	require.True(t, Equal(NewString("abc"), NewString("abc")))
	require.False(t, Equal(NewString("abc"), NewString("abd")))
}

func TestList_SetAutoGrowsWithNilFill(t *testing.T) {
	lv := NewList(Int(1))
	l := lv.AsList()
	require.True(t, l.Set(3, Int(9)))
	require.Equal(t, 4, l.Len())
	v2, ok := l.Get(1)
	require.True(t, ok)
	require.True(t, v2.IsNil())
	v3, _ := l.Get(3)
	require.Equal(t, int64(9), v3.AsInt())
}

func TestList_StructuralEquality(t *testing.T) {
	a := NewList(Int(1), NewString("x"))
	b := NewList(Int(1), NewString("x"))
	c := NewList(Int(1), NewString("y"))
	require.True(t, Equal(a, b))
	require.False(t, Equal(a, c))
}

func TestMap_PreservesInsertionOrderAndUniqueKeys(t *testing.T) {
	mv := NewMap()
	m := mv.AsMap()
	m.Set("b", Int(2))
	m.Set("a", Int(1))
	m.Set("b", Int(20)) // overwrite keeps original position
	require.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	require.True(t, ok)
	require.Equal(t, int64(20), v.AsInt())
}

func TestMap_Delete(t *testing.T) {
	mv := NewMap()
	m := mv.AsMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	require.True(t, m.Delete("a"))
	require.False(t, m.Delete("a"))
	require.Equal(t, []string{"b"}, m.Keys())
}

func TestStrBuf_AppendAndClear(t *testing.T) {
	sbv := NewStrBuf()
	sb := sbv.AsStrBuf()
	sb.Append("hello ")
	sb.Append("world")
	require.Equal(t, "hello world", sb.Get())
	require.Equal(t, 11, sb.Len())
	sb.Clear()
	require.Equal(t, "", sb.Get())
}

func TestRange_LenExclusiveAndInclusive(t *testing.T) {
	r := NewRange(1, 5, false).AsRange()
	require.Equal(t, int64(4), r.Len())
	ri := NewRange(1, 5, true).AsRange()
	require.Equal(t, int64(5), ri.Len())
}

func TestString_LenIsByteCountNotRuneCount(t *testing.T) {
	s := NewString("héllo").AsString()
	require.Equal(t, 6, s.Len())
	require.Equal(t, 5, len([]rune(s.Get())))
}

func TestStrBuf_LenIsByteCountNotRuneCount(t *testing.T) {
	sb := NewStrBuf().AsStrBuf()
	sb.Append("héllo")
	require.Equal(t, 6, sb.Len())
}

func TestPromise_SettlesOnceAndRunsCallbacksInOrder(t *testing.T) {
	pv := NewPromise()
	p := pv.AsPromise()
	var order []int
	p.OnSettle(func(Value) { order = append(order, 1) }, func(Value) { order = append(order, -1) })
	p.OnSettle(func(Value) { order = append(order, 2) }, func(Value) { order = append(order, -2) })
	p.Resolve(Int(42))
	p.Resolve(Int(99)) // idempotent: second settlement is ignored
	require.Equal(t, []int{1, 2}, order)
	require.Equal(t, PromiseFulfilled, p.State)
	require.Equal(t, int64(42), p.Result.AsInt())
}
