package interpreter

import (
	"fmt"
	"strconv"

	"github.com/frankischilling/cupidscript/internal/value"
)

// registerBuiltins installs the small set of core globals every script can
// assume exists regardless of embedding: constructors and reflection over
// the tagged value model itself (len/type/str/int/float/strbuf), plus
// print. Host-specific globals (networking, timers, module loading) are
// layered on top by the embedding API, not here.
func (in *Interpreter) registerBuiltins() {
	natives := map[string]value.NativeFn{
		"print":  in.builtinPrint,
		"len":    builtinLen,
		"type":   builtinType,
		"str":    builtinStr,
		"int":    builtinInt,
		"float":  builtinFloat,
		"strbuf": builtinStrBuf,
	}
	for name, fn := range natives {
		_ = in.Globals.Define(name, value.NewNative(name, fn, nil), true)
	}
}

func (in *Interpreter) builtinPrint(args []value.Value) (value.Value, error) {
	for i, a := range args {
		if i > 0 {
			in.Print(" ")
		}
		in.Print(a.String())
	}
	in.Print("\n")
	return value.Nil, nil
}

func builtinLen(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("len expects 1 argument, got %d", len(args))
	}
	switch args[0].Kind {
	case value.KindString:
		return value.Int(int64(args[0].AsString().Len())), nil
	case value.KindList:
		return value.Int(int64(args[0].AsList().Len())), nil
	case value.KindMap:
		return value.Int(int64(args[0].AsMap().Len())), nil
	case value.KindStrBuf:
		return value.Int(int64(args[0].AsStrBuf().Len())), nil
	case value.KindRange:
		return value.Int(args[0].AsRange().Len()), nil
	default:
		return value.Nil, fmt.Errorf("len is not defined for %s", args[0].TypeName())
	}
}

func builtinType(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("type expects 1 argument, got %d", len(args))
	}
	return value.NewString(args[0].TypeName()), nil
}

func builtinStr(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("str expects 1 argument, got %d", len(args))
	}
	return value.NewString(args[0].String()), nil
}

func builtinInt(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("int expects 1 argument, got %d", len(args))
	}
	switch args[0].Kind {
	case value.KindInt:
		return args[0], nil
	case value.KindFloat:
		return value.Int(int64(args[0].AsFloat())), nil
	case value.KindString:
		n, err := strconv.ParseInt(args[0].AsString().Get(), 10, 64)
		if err != nil {
			return value.Nil, fmt.Errorf("cannot convert %q to int", args[0].AsString().Get())
		}
		return value.Int(n), nil
	case value.KindBool:
		if args[0].AsBool() {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	default:
		return value.Nil, fmt.Errorf("cannot convert %s to int", args[0].TypeName())
	}
}

func builtinFloat(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("float expects 1 argument, got %d", len(args))
	}
	switch args[0].Kind {
	case value.KindFloat:
		return args[0], nil
	case value.KindInt:
		return value.Float(float64(args[0].AsInt())), nil
	case value.KindString:
		f, err := strconv.ParseFloat(args[0].AsString().Get(), 64)
		if err != nil {
			return value.Nil, fmt.Errorf("cannot convert %q to float", args[0].AsString().Get())
		}
		return value.Float(f), nil
	default:
		return value.Nil, fmt.Errorf("cannot convert %s to float", args[0].TypeName())
	}
}

func builtinStrBuf(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil, fmt.Errorf("strbuf expects 0 arguments, got %d", len(args))
	}
	return value.NewStrBuf(), nil
}
