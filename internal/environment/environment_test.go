package environment

import (
	"testing"

	"github.com/frankischilling/cupidscript/internal/value"
	"github.com/stretchr/testify/require"
)

func TestEnvironment_DefineAndGet(t *testing.T) {
	env := New()
	require.NoError(t, env.Define("x", value.Int(1), false))
	v, ok := env.Get("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v.AsInt())
}

func TestEnvironment_RedeclareInSameScopeErrors(t *testing.T) {
	env := New()
	require.NoError(t, env.Define("x", value.Int(1), false))
	err := env.Define("x", value.Int(2), false)
	require.Error(t, err)
}

func TestEnvironment_ChildShadowsParent(t *testing.T) {
	parent := New()
	require.NoError(t, parent.Define("x", value.Int(1), false))
	child := parent.Child()
	require.NoError(t, child.Define("x", value.Int(2), false))

	v, _ := child.Get("x")
	require.Equal(t, int64(2), v.AsInt())
	pv, _ := parent.Get("x")
	require.Equal(t, int64(1), pv.AsInt())
}

func TestEnvironment_LookupWalksParentChain(t *testing.T) {
	parent := New()
	require.NoError(t, parent.Define("y", value.Int(9), false))
	child := parent.Child().Child()
	v, ok := child.Get("y")
	require.True(t, ok)
	require.Equal(t, int64(9), v.AsInt())
}

func TestEnvironment_AssignWritesToDeclaringScope(t *testing.T) {
	parent := New()
	require.NoError(t, parent.Define("x", value.Int(1), false))
	child := parent.Child()

	found, err := child.Assign("x", value.Int(5))
	require.True(t, found)
	require.NoError(t, err)

	v, _ := parent.Get("x")
	require.Equal(t, int64(5), v.AsInt())
}

func TestEnvironment_AssignToConstErrors(t *testing.T) {
	env := New()
	require.NoError(t, env.Define("x", value.Int(1), true))
	found, err := env.Assign("x", value.Int(2))
	require.True(t, found)
	require.Error(t, err)
}

func TestEnvironment_AssignUnboundReturnsNotFound(t *testing.T) {
	env := New()
	found, err := env.Assign("missing", value.Int(1))
	require.False(t, found)
	require.NoError(t, err)
}
