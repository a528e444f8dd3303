package interpreter

import (
	"testing"

	"github.com/frankischilling/cupidscript/internal/compiler/lexer"
	"github.com/frankischilling/cupidscript/internal/compiler/parser"
	"github.com/frankischilling/cupidscript/internal/value"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// run lexes, parses, and executes source against a fresh interpreter,
// returning the interpreter (so tests can inspect Globals) and any error.
func run(t *testing.T, source string) (*Interpreter, error) {
	t.Helper()
	toks, lexErrs := lexer.New(source).ScanTokens()
	require.Empty(t, lexErrs)
	prog, parseErrs := parser.New(toks, source).ParseProgram()
	require.Empty(t, parseErrs)
	in := New("<test>", zap.NewNop())
	return in, in.Run(prog)
}

func TestInterpreter_LetAndArithmetic(t *testing.T) {
	in, err := run(t, `
		let a = 1 + 2 * 3;
		let b = a;
		export x = b;
	`)
	require.NoError(t, err)
	v, ok := in.Globals.Get("a")
	require.True(t, ok)
	require.Equal(t, int64(7), v.AsInt())
}

func TestInterpreter_IntFloatWidening(t *testing.T) {
	in, err := run(t, `let a = 3 / 2; let b = 3.0 / 2; let c = "x" + 1;`)
	require.NoError(t, err)
	a, _ := in.Globals.Get("a")
	require.Equal(t, value.KindInt, a.Kind)
	require.Equal(t, int64(1), a.AsInt())
	b, _ := in.Globals.Get("b")
	require.Equal(t, value.KindFloat, b.Kind)
	require.InDelta(t, 1.5, b.AsFloat(), 0.0001)
	c, _ := in.Globals.Get("c")
	require.Equal(t, "x1", c.String())
}

func TestInterpreter_DivisionByZeroIsCatchable(t *testing.T) {
	in, err := run(t, `
		let caught = nil;
		try {
			let x = 1 / 0;
		} catch (e) {
			caught = e;
		}
	`)
	require.NoError(t, err)
	caught, _ := in.Globals.Get("caught")
	require.Contains(t, caught.String(), "division by zero")
}

func TestInterpreter_UncaughtThrowPropagatesAsError(t *testing.T) {
	_, err := run(t, `throw "boom";`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestInterpreter_FunctionCallAndReturn(t *testing.T) {
	in, err := run(t, `
		fn add(a, b) { return a + b; }
		let r = add(2, 3);
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("r")
	require.Equal(t, int64(5), v.AsInt())
}

func TestInterpreter_ClosureCapturesDefiningScope(t *testing.T) {
	in, err := run(t, `
		fn makeCounter() {
			let n = 0;
			fn incr() {
				n = n + 1;
				return n;
			}
			return incr;
		}
		let c = makeCounter();
		let first = c();
		let second = c();
	`)
	require.NoError(t, err)
	first, _ := in.Globals.Get("first")
	second, _ := in.Globals.Get("second")
	require.Equal(t, int64(1), first.AsInt())
	require.Equal(t, int64(2), second.AsInt())
}

func TestInterpreter_ForInOverList(t *testing.T) {
	in, err := run(t, `
		let total = 0;
		for item in [1, 2, 3] {
			total += item;
		}
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("total")
	require.Equal(t, int64(6), v.AsInt())
}

func TestInterpreter_BreakAndContinue(t *testing.T) {
	in, err := run(t, `
		let sum = 0;
		for (let i = 0; i < 10; i += 1) {
			if (i == 5) { break; }
			if (i % 2 == 0) { continue; }
			sum += i;
		}
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("sum")
	require.Equal(t, int64(4), v.AsInt()) // 1 + 3
}

func TestInterpreter_DeferRunsLIFOOnNormalExit(t *testing.T) {
	in, err := run(t, `
		let log = [];
		fn use() {
			defer log.push("first");
			defer log.push("second");
			log.push("body");
		}
		use();
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("log")
	items := v.AsList().Items()
	require.Len(t, items, 3)
	require.Equal(t, "body", items[0].String())
	require.Equal(t, "second", items[1].String())
	require.Equal(t, "first", items[2].String())
}

func TestInterpreter_FinallyOverridesTryOutcome(t *testing.T) {
	in, err := run(t, `
		fn f() {
			try {
				return 1;
			} finally {
				return 2;
			}
		}
		let r = f();
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("r")
	require.Equal(t, int64(2), v.AsInt())
}

func TestInterpreter_ListDestructuring(t *testing.T) {
	in, err := run(t, `let [a, b] = [10, 20];`)
	require.NoError(t, err)
	a, _ := in.Globals.Get("a")
	b, _ := in.Globals.Get("b")
	require.Equal(t, int64(10), a.AsInt())
	require.Equal(t, int64(20), b.AsInt())
}

func TestInterpreter_MapDestructuringWithRename(t *testing.T) {
	in, err := run(t, `let {name, age: years} = {name: "ada", age: 30};`)
	require.NoError(t, err)
	name, _ := in.Globals.Get("name")
	years, _ := in.Globals.Get("years")
	require.Equal(t, "ada", name.String())
	require.Equal(t, int64(30), years.AsInt())
}

func TestInterpreter_MatchExprFirstMatchWins(t *testing.T) {
	in, err := run(t, `
		let x = 2;
		let label = match (x) {
			case 1 => "one",
			case n if n > 1 => "many",
			default => "none",
		};
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("label")
	require.Equal(t, "many", v.String())
}

func TestInterpreter_MatchGuardThrowFallsThroughToNextCase(t *testing.T) {
	in, err := run(t, `
		fn explode(n) {
			throw "nope";
		}
		let x = 2;
		let label = match (x) {
			case n if explode(n) => "unreachable",
			case n if n > 1 => "many",
			default => "none",
		};
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("label")
	require.Equal(t, "many", v.String())
}

func TestInterpreter_MatchGuardThrowFallsThroughToDefault(t *testing.T) {
	in, err := run(t, `
		fn explode(n) {
			throw "nope";
		}
		let x = 2;
		let label = match (x) {
			case n if explode(n) => "unreachable",
			default => "none",
		};
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("label")
	require.Equal(t, "none", v.String())
}

func TestInterpreter_StringBuilderMethods(t *testing.T) {
	in, err := run(t, `
		let sb = strbuf();
		sb.append("hello");
		sb.append(" world");
		let s = sb.str();
		let n = sb.len();
	`)
	require.NoError(t, err)
	s, ok := in.Globals.Get("s")
	require.True(t, ok)
	require.Equal(t, "hello world", s.String())
	n, _ := in.Globals.Get("n")
	require.Equal(t, int64(11), n.AsInt())
}

func TestInterpreter_ListMethodDispatch(t *testing.T) {
	in, err := run(t, `
		let xs = [1, 2];
		xs.push(3);
		let popped = xs.pop();
		let n = xs.len();
	`)
	require.NoError(t, err)
	popped, _ := in.Globals.Get("popped")
	require.Equal(t, int64(3), popped.AsInt())
	n, _ := in.Globals.Get("n")
	require.Equal(t, int64(2), n.AsInt())
}

func TestInterpreter_DottedGlobalFallback(t *testing.T) {
	in := New("<test>", zap.NewNop())
	upcase := value.NewNative("String.upcase", func(args []value.Value) (value.Value, error) {
		return value.NewString("UP"), nil
	}, nil)
	require.NoError(t, in.Globals.Define("String.upcase", upcase, true))

	toks, _ := lexer.New(`let r = String.upcase("hi");`).ScanTokens()
	prog, parseErrs := parser.New(toks, "<test>").ParseProgram()
	require.Empty(t, parseErrs)
	require.NoError(t, in.Run(prog))

	r, _ := in.Globals.Get("r")
	require.Equal(t, "UP", r.String())
}

func TestInterpreter_InstructionLimitAborts(t *testing.T) {
	in := New("<test>", zap.NewNop())
	in.SetInstructionLimit(5)
	toks, _ := lexer.New(`
		let i = 0;
		while (true) {
			i += 1;
		}
	`).ScanTokens()
	prog, parseErrs := parser.New(toks, "<test>").ParseProgram()
	require.Empty(t, parseErrs)
	err := in.Run(prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "instruction limit")
}

func TestInterpreter_AwaitSleepTimerFires(t *testing.T) {
	in, err := run(t, `
		let p = sleep(10);
		let t0 = now_ms();
		await p;
		let dt = now_ms() - t0;
		let ok = dt >= 10;
	`)
	require.NoError(t, err)
	ok, _ := in.Globals.Get("ok")
	require.True(t, ok.Truthy())
}

func TestInterpreter_AwaitNonPromiseThrows(t *testing.T) {
	in, err := run(t, `
		let caught = nil;
		try {
			await 5;
		} catch (e) {
			caught = e;
		}
	`)
	require.NoError(t, err)
	caught, _ := in.Globals.Get("caught")
	require.Contains(t, caught.String(), "await requires a promise")
}

func TestInterpreter_AwaitRejectedPromiseIsCatchable(t *testing.T) {
	in := New("<test>", zap.NewNop())
	p := value.NewPromise()
	p.AsPromise().Reject(value.NewString("network down"))
	require.NoError(t, in.Globals.Define("p", p, true))

	toks, _ := lexer.New(`
		let caught = nil;
		try {
			await p;
		} catch (e) {
			caught = e;
		}
	`).ScanTokens()
	prog, parseErrs := parser.New(toks, "<test>").ParseProgram()
	require.Empty(t, parseErrs)
	require.NoError(t, in.Run(prog))

	caught, _ := in.Globals.Get("caught")
	require.Equal(t, "network down", caught.String())
}

func TestInterpreter_AwaitWithNoScheduledWorkStalls(t *testing.T) {
	in := New("<test>", zap.NewNop())
	p := value.NewPromise()
	require.NoError(t, in.Globals.Define("p", p, true))

	toks, _ := lexer.New(`
		let caught = nil;
		try {
			await p;
		} catch (e) {
			caught = e;
		}
	`).ScanTokens()
	prog, parseErrs := parser.New(toks, "<test>").ParseProgram()
	require.Empty(t, parseErrs)
	require.NoError(t, in.Run(prog))

	caught, _ := in.Globals.Get("caught")
	require.Contains(t, caught.String(), "stalled")
}

func TestInterpreter_AwaitHonorsInstructionLimit(t *testing.T) {
	in := New("<test>", zap.NewNop())
	in.SetInstructionLimit(1)
	p := value.NewPromise()
	require.NoError(t, in.Globals.Define("p", p, true))

	toks, _ := lexer.New(`await p;`).ScanTokens()
	prog, parseErrs := parser.New(toks, "<test>").ParseProgram()
	require.Empty(t, parseErrs)
	err := in.Run(prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "instruction limit")
}

func TestInterpreter_OptionalFieldAccessShortCircuits(t *testing.T) {
	in, err := run(t, `
		let m = nil;
		let v = m?.name;
	`)
	require.NoError(t, err)
	v, _ := in.Globals.Get("v")
	require.True(t, v.IsNil())
}
