package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/value"
)

func str(s string) value.Value { return value.NewString(s) }

func call(t *testing.T, name string, args ...value.Value) value.Value {
	t.Helper()
	g := environment.New()
	Register(g)
	fn, ok := g.Get(name)
	require.True(t, ok, "expected %s to be registered", name)
	result, err := fn.AsNative().Fn(args)
	require.NoError(t, err)
	return result
}

func TestStringLength(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"empty string", "", 0},
		{"ascii string", "hello", 5},
		{"unicode string", "你好世界", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, "String.length", str(tt.input))
			require.Equal(t, value.Int(tt.want), got)
		})
	}
}

func TestStringSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"basic text", "Hello World", "hello-world"},
		{"with punctuation", "Hello, World!", "hello-world"},
		{"multiple spaces", "  Multiple   Spaces  ", "multiple-spaces"},
		{"leading/trailing dashes", "---test---", "test"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, "String.slugify", str(tt.input))
			require.Equal(t, tt.want, got.AsString().Get())
		})
	}
}

func TestStringUpcaseDowncase(t *testing.T) {
	require.Equal(t, "HELLO", call(t, "String.upcase", str("hello")).AsString().Get())
	require.Equal(t, "hello", call(t, "String.downcase", str("HELLO")).AsString().Get())
}

func TestStringTrim(t *testing.T) {
	require.Equal(t, "hi", call(t, "String.trim", str("  hi  ")).AsString().Get())
}

func TestStringContains(t *testing.T) {
	require.Equal(t, value.Bool(true), call(t, "String.contains", str("hello world"), str("world")))
	require.Equal(t, value.Bool(false), call(t, "String.contains", str("hello world"), str("xyz")))
}

func TestStringReplace(t *testing.T) {
	got := call(t, "String.replace", str("a-b-c"), str("-"), str("_"))
	require.Equal(t, "a_b_c", got.AsString().Get())
}

func TestTimeRoundTrip(t *testing.T) {
	now := call(t, "Time.now")
	require.Equal(t, value.KindFloat, now.Kind)

	formatted := call(t, "Time.format", now, str("YYYY-MM-DD"))
	require.Equal(t, value.KindString, formatted.Kind)

	parsed := call(t, "Time.parse", formatted, str("YYYY-MM-DD"))
	require.Equal(t, value.KindFloat, parsed.Kind)
}

func TestTimeParseInvalidReturnsNil(t *testing.T) {
	got := call(t, "Time.parse", str("not-a-date"), str("YYYY-MM-DD"))
	require.True(t, got.IsNil())
}

func TestTimeAddDays(t *testing.T) {
	now := call(t, "Time.now")
	later := call(t, "Time.add_days", now, value.Int(1))
	require.Greater(t, later.AsFloat(), now.AsFloat())
}

func TestUUIDGenerate(t *testing.T) {
	a := call(t, "UUID.generate")
	b := call(t, "UUID.generate")
	require.NotEqual(t, a.AsString().Get(), b.AsString().Get())
	require.Len(t, a.AsString().Get(), 36)
}
