package interpreter

import (
	"fmt"

	"github.com/frankischilling/cupidscript/internal/value"
)

func wantArgs(field string, args []value.Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s expects %d argument(s), got %d", field, n, len(args))
	}
	return nil
}

func callStrBufMethod(sb *value.StrBuf, field string, args []value.Value) (value.Value, error) {
	switch field {
	case "append":
		if err := wantArgs(field, args, 1); err != nil {
			return value.Nil, err
		}
		sb.Append(args[0].String())
		return value.Nil, nil
	case "str":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		return value.NewString(sb.Get()), nil
	case "clear":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		sb.Clear()
		return value.Nil, nil
	case "len":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		return value.Int(int64(sb.Len())), nil
	default:
		return value.Nil, fmt.Errorf("strbuf has no method %q", field)
	}
}

func callListMethod(l *value.List, field string, args []value.Value) (value.Value, error) {
	switch field {
	case "len":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		return value.Int(int64(l.Len())), nil
	case "push":
		if err := wantArgs(field, args, 1); err != nil {
			return value.Nil, err
		}
		l.Push(args[0])
		return value.Nil, nil
	case "pop":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		v, ok := l.Pop()
		if !ok {
			return value.Nil, fmt.Errorf("pop on empty list")
		}
		return v, nil
	case "get":
		if err := wantArgs(field, args, 1); err != nil {
			return value.Nil, err
		}
		if args[0].Kind != value.KindInt {
			return value.Nil, fmt.Errorf("get index must be an integer")
		}
		v, _ := l.Get(int(args[0].AsInt()))
		return v, nil
	case "set":
		if err := wantArgs(field, args, 2); err != nil {
			return value.Nil, err
		}
		if args[0].Kind != value.KindInt {
			return value.Nil, fmt.Errorf("set index must be an integer")
		}
		l.Set(int(args[0].AsInt()), args[1])
		return value.Nil, nil
	default:
		return value.Nil, fmt.Errorf("list has no method %q", field)
	}
}

func callMapMethod(m *value.Map, field string, args []value.Value) (value.Value, error) {
	switch field {
	case "len":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		return value.Int(int64(m.Len())), nil
	case "get":
		if err := wantArgs(field, args, 1); err != nil {
			return value.Nil, err
		}
		v, _ := m.Get(args[0].String())
		return v, nil
	case "set":
		if err := wantArgs(field, args, 2); err != nil {
			return value.Nil, err
		}
		m.Set(args[0].String(), args[1])
		return value.Nil, nil
	case "has":
		if err := wantArgs(field, args, 1); err != nil {
			return value.Nil, err
		}
		_, ok := m.Get(args[0].String())
		return value.Bool(ok), nil
	case "del":
		if err := wantArgs(field, args, 1); err != nil {
			return value.Nil, err
		}
		return value.Bool(m.Delete(args[0].String())), nil
	case "keys":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		keys := m.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.NewString(k)
		}
		return value.NewList(items...), nil
	default:
		return value.Nil, fmt.Errorf("map has no method %q", field)
	}
}

func callStringMethod(s *value.String, field string, args []value.Value) (value.Value, error) {
	switch field {
	case "len":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		return value.Int(int64(s.Len())), nil
	default:
		return value.Nil, fmt.Errorf("string has no method %q; use the String namespace functions instead", field)
	}
}

func callPromiseMethod(p *value.Promise, field string, args []value.Value) (value.Value, error) {
	switch field {
	case "state":
		if err := wantArgs(field, args, 0); err != nil {
			return value.Nil, err
		}
		switch p.State {
		case value.PromiseFulfilled:
			return value.NewString("fulfilled"), nil
		case value.PromiseRejected:
			return value.NewString("rejected"), nil
		default:
			return value.NewString("pending"), nil
		}
	default:
		return value.Nil, fmt.Errorf("promise has no method %q; use .then()/.catch() via the async runtime", field)
	}
}
