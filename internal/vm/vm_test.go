package vm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frankischilling/cupidscript/internal/value"
)

func TestVM_RunStringReturnsZeroOnSuccess(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	rc := v.RunString(`let x = 1 + 2;`, "<test>")
	require.Equal(t, 0, rc)
	require.Equal(t, "", v.LastError())
}

func TestVM_RunStringReturnsNonZeroAndSetsLastError(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	rc := v.RunString(`throw "boom";`, "<test>")
	require.Equal(t, 1, rc)
	require.Contains(t, v.LastError(), "boom")
}

func TestVM_CallInvokesScriptFunctionByName(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	require.Equal(t, 0, v.RunString(`fn add(a, b) { return a + b; }`, "<test>"))

	result, err := v.Call("add", []value.Value{IntValue(2), IntValue(3)})
	require.NoError(t, err)
	require.Equal(t, int64(5), result.AsInt())
}

func TestVM_RegisterNativeIsCallableFromScriptAsDottedGlobal(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	called := false
	v.RegisterNative("fm.list_dir", func(args []value.Value) (value.Value, error) {
		called = true
		return ListValue(StrValue("a.txt"), StrValue("b.txt")), nil
	}, nil)

	rc := v.RunString(`let files = fm.list_dir("/tmp");`, "<test>")
	require.Equal(t, 0, rc, v.LastError())
	require.True(t, called)
}

func TestVM_ContainerHelpersMirrorValueMethods(t *testing.T) {
	list := ListValue(IntValue(1), IntValue(2))
	require.Equal(t, 2, ListLen(list))
	ListPush(list, IntValue(3))
	require.Equal(t, 3, ListLen(list))
	item, ok := ListGet(list, 2)
	require.True(t, ok)
	require.Equal(t, int64(3), item.AsInt())

	m := MapValue()
	MapSet(m, "key", StrValue("value"))
	require.True(t, MapHas(m, "key"))
	got, ok := MapGet(m, "key")
	require.True(t, ok)
	require.Equal(t, "value", got.String())
	require.Equal(t, []string{"key"}, MapKeys(m))
	require.True(t, MapDel(m, "key"))
	require.Equal(t, 0, MapLen(m))
}

func TestVM_ValueCopyAndReleaseAreObservableNoOps(t *testing.T) {
	s := StrValue("hello")
	copied := ValueCopy(s)
	require.Equal(t, s.String(), copied.String())
	ValueRelease(copied) // must not panic or alter s
	require.Equal(t, "hello", s.String())
}

func TestVM_SetInstructionLimitAbortsLongRunningScript(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	v.SetInstructionLimit(5)
	rc := v.RunString(`let i = 0; while (i < 1000000) { i = i + 1; }`, "<test>")
	require.Equal(t, 1, rc)
	require.Contains(t, v.LastError(), "instruction limit")
}

func TestVM_InterruptAbortsRunningScript(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	v.Interrupt()
	rc := v.RunString(`let x = 1;`, "<test>")
	require.Equal(t, 1, rc)
	require.Contains(t, v.LastError(), "interrupted")
}

func TestVM_GetInstructionCountAdvances(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	require.Equal(t, 0, v.RunString(`let x = 1; let y = 2;`, "<test>"))
	require.Greater(t, v.GetInstructionCount(), int64(0))
}

func TestVM_SetTimeoutAbortsRunningScript(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	v.SetTimeout(time.Nanosecond)
	time.Sleep(time.Millisecond)
	rc := v.RunString(`let x = 1; let y = 2;`, "<test>")
	require.Equal(t, 1, rc)
}

func TestVM_RunFileReportsReadError(t *testing.T) {
	v := New("<test>", nil)
	defer v.Free()

	rc := v.RunFile("/nonexistent/path/does-not-exist.cupid")
	require.Equal(t, 1, rc)
	require.NotEmpty(t, v.LastError())
}
