// Package runtime provides the CupidScript standard library's dotted-global
// namespace functions (String.*, Time.*, UUID.*), registered into an
// Interpreter's global scope the same way core/plugins.c registers native
// namespaces into the C VM.
//
// Array/Hash namespace helpers are intentionally absent here: once list and
// map became first-class tagged values with their own method dispatch
// (internal/interpreter/methods.go), a generic Array.length/Hash.has_key
// pair would just be a slower path to the same thing a script can already
// do with obj.len()/obj.has(key).
package runtime

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frankischilling/cupidscript/internal/environment"
	"github.com/frankischilling/cupidscript/internal/value"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Register installs the String, Time, and UUID dotted-global namespaces
// into globals. Hosts call this after interpreter.New to opt a script into
// the standard library; a minimal embedding that only needs the core
// builtins (print/len/type/...) can skip it entirely.
func Register(globals *environment.Environment) {
	natives := map[string]value.NativeFn{
		"String.length":   stringLength,
		"String.slugify":  stringSlugify,
		"String.upcase":   stringUpcase,
		"String.downcase": stringDowncase,
		"String.trim":     stringTrim,
		"String.contains": stringContains,
		"String.replace":  stringReplace,

		"Time.now":      timeNow,
		"Time.format":   timeFormat,
		"Time.parse":    timeParse,
		"Time.add_days": timeAddDays,

		"UUID.generate": uuidGenerate,
	}
	for name, fn := range natives {
		_ = globals.Define(name, value.NewNative(name, fn, nil), true)
	}
}

func wantString(field string, args []value.Value, i int) (string, error) {
	if i >= len(args) || args[i].Kind != value.KindString {
		return "", fmt.Errorf("%s expects a string argument at position %d", field, i)
	}
	return args[i].AsString().Get(), nil
}

func stringLength(args []value.Value) (value.Value, error) {
	s, err := wantString("String.length", args, 0)
	if err != nil {
		return value.Nil, err
	}
	return value.Int(int64(len([]rune(s)))), nil
}

func stringSlugify(args []value.Value) (value.Value, error) {
	s, err := wantString("String.slugify", args, 0)
	if err != nil {
		return value.Nil, err
	}
	s = strings.ToLower(s)
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return value.NewString(s), nil
}

func stringUpcase(args []value.Value) (value.Value, error) {
	s, err := wantString("String.upcase", args, 0)
	if err != nil {
		return value.Nil, err
	}
	return value.NewString(strings.ToUpper(s)), nil
}

func stringDowncase(args []value.Value) (value.Value, error) {
	s, err := wantString("String.downcase", args, 0)
	if err != nil {
		return value.Nil, err
	}
	return value.NewString(strings.ToLower(s)), nil
}

func stringTrim(args []value.Value) (value.Value, error) {
	s, err := wantString("String.trim", args, 0)
	if err != nil {
		return value.Nil, err
	}
	return value.NewString(strings.TrimSpace(s)), nil
}

func stringContains(args []value.Value) (value.Value, error) {
	s, err := wantString("String.contains", args, 0)
	if err != nil {
		return value.Nil, err
	}
	substr, err := wantString("String.contains", args, 1)
	if err != nil {
		return value.Nil, err
	}
	return value.Bool(strings.Contains(s, substr)), nil
}

func stringReplace(args []value.Value) (value.Value, error) {
	s, err := wantString("String.replace", args, 0)
	if err != nil {
		return value.Nil, err
	}
	old, err := wantString("String.replace", args, 1)
	if err != nil {
		return value.Nil, err
	}
	replacement, err := wantString("String.replace", args, 2)
	if err != nil {
		return value.Nil, err
	}
	return value.NewString(strings.ReplaceAll(s, old, replacement)), nil
}

// Timestamps are represented as a float seconds-since-epoch, the simplest
// tagged-value shape that round-trips through the existing Int/Float kinds
// without a dedicated KindTimestamp.
func timeNow(args []value.Value) (value.Value, error) {
	return value.Float(float64(time.Now().UnixNano()) / 1e9), nil
}

func timeFormat(args []value.Value) (value.Value, error) {
	if len(args) != 2 || (args[0].Kind != value.KindFloat && args[0].Kind != value.KindInt) {
		return value.Nil, fmt.Errorf("Time.format expects (timestamp, layout)")
	}
	layout, err := wantString("Time.format", args, 1)
	if err != nil {
		return value.Nil, err
	}
	t := timestampToTime(args[0])
	return value.NewString(t.Format(goLayout(layout))), nil
}

func timeParse(args []value.Value) (value.Value, error) {
	s, err := wantString("Time.parse", args, 0)
	if err != nil {
		return value.Nil, err
	}
	layout, err := wantString("Time.parse", args, 1)
	if err != nil {
		return value.Nil, err
	}
	t, parseErr := time.Parse(goLayout(layout), s)
	if parseErr != nil {
		return value.Nil, nil
	}
	return value.Float(float64(t.UnixNano()) / 1e9), nil
}

func timeAddDays(args []value.Value) (value.Value, error) {
	if len(args) != 2 || (args[0].Kind != value.KindFloat && args[0].Kind != value.KindInt) || args[1].Kind != value.KindInt {
		return value.Nil, fmt.Errorf("Time.add_days expects (timestamp, days)")
	}
	t := timestampToTime(args[0])
	t = t.AddDate(0, 0, int(args[1].AsInt()))
	return value.Float(float64(t.UnixNano()) / 1e9), nil
}

func timestampToTime(v value.Value) time.Time {
	var secs float64
	if v.Kind == value.KindInt {
		secs = float64(v.AsInt())
	} else {
		secs = v.AsFloat()
	}
	return time.Unix(0, int64(secs*1e9))
}

// goLayout lets scripts pass either a Go reference-time layout or the
// common "YYYY-MM-DD"-style placeholders. The placeholders are translated
// only when the layout contains a 'Y'; a layout such as "HH:mm" is passed
// through unchanged.
func goLayout(layout string) string {
	replacer := strings.NewReplacer(
		"YYYY", "2006", "MM", "01", "DD", "02",
		"HH", "15", "mm", "04", "ss", "05",
	)
	if strings.ContainsAny(layout, "Y") {
		return replacer.Replace(layout)
	}
	return layout
}

func uuidGenerate(args []value.Value) (value.Value, error) {
	return value.NewString(uuid.New().String()), nil
}
