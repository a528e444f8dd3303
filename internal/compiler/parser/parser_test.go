package parser

import (
	"testing"

	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/compiler/lexer"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, source string) (*ast.Program, []*ParseError) {
	t.Helper()
	lex := lexer.New(source)
	tokens, lexErrors := lex.ScanTokens()
	require.Empty(t, lexErrors, "unexpected lexer errors")
	p := New(tokens, source)
	return p.ParseProgram()
}

func TestParser_LetBinding(t *testing.T) {
	program, errs := parseSource(t, `let x = 1;`)
	require.Empty(t, errs)
	require.Len(t, program.Statements, 1)
	let, ok := program.Statements[0].(*ast.LetStmt)
	require.True(t, ok)
	require.False(t, let.IsConst)
	ident, ok := let.Pattern.(*ast.IdentPattern)
	require.True(t, ok)
	require.Equal(t, "x", ident.Name)
}

func TestParser_ConstRequiresInitializer(t *testing.T) {
	_, errs := parseSource(t, `const x;`)
	require.NotEmpty(t, errs)
}

func TestParser_ListDestructuring(t *testing.T) {
	program, errs := parseSource(t, `let [a, b] = pair;`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	list, ok := let.Pattern.(*ast.ListPattern)
	require.True(t, ok)
	require.Len(t, list.Elements, 2)
}

func TestParser_MapDestructuringWithRename(t *testing.T) {
	program, errs := parseSource(t, `let {a, b: renamed} = obj;`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	m, ok := let.Pattern.(*ast.MapPattern)
	require.True(t, ok)
	require.Equal(t, []ast.MapPatternField{{Key: "a", Local: "a"}, {Key: "b", Local: "renamed"}}, m.Fields)
}

func TestParser_AssignmentIsAStatement(t *testing.T) {
	program, errs := parseSource(t, `x = 1; x += 2;`)
	require.Empty(t, errs)
	require.Len(t, program.Statements, 2)
	_, ok := program.Statements[0].(*ast.AssignStmt)
	require.True(t, ok)
	assign2 := program.Statements[1].(*ast.AssignStmt)
	require.Equal(t, "+=", assign2.Op)
}

func TestParser_IfElseChain(t *testing.T) {
	program, errs := parseSource(t, `if (x) { 1; } else if (y) { 2; } else { 3; }`)
	require.Empty(t, errs)
	ifStmt := program.Statements[0].(*ast.IfStmt)
	require.NotNil(t, ifStmt.Else)
	_, ok := ifStmt.Else.(*ast.IfStmt)
	require.True(t, ok)
}

func TestParser_ForInLoop(t *testing.T) {
	program, errs := parseSource(t, `for item in items { print(item); }`)
	require.Empty(t, errs)
	forIn, ok := program.Statements[0].(*ast.ForInStmt)
	require.True(t, ok)
	require.Equal(t, "item", forIn.Name)
}

func TestParser_CStyleForLoop(t *testing.T) {
	program, errs := parseSource(t, `for (let i = 0; i < 10; i += 1) { print(i); }`)
	require.Empty(t, errs)
	forStmt, ok := program.Statements[0].(*ast.ForStmt)
	require.True(t, ok)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Incr)
}

func TestParser_ForeverLoop(t *testing.T) {
	program, errs := parseSource(t, `for (;;) { break; }`)
	require.Empty(t, errs)
	forStmt, ok := program.Statements[0].(*ast.ForStmt)
	require.True(t, ok)
	require.Nil(t, forStmt.Init)
	require.Nil(t, forStmt.Cond)
	require.Nil(t, forStmt.Incr)
}

func TestParser_FnDeclVsFnLiteral(t *testing.T) {
	program, errs := parseSource(t, `fn add(a, b) { return a + b; } let f = fn(x) { return x; };`)
	require.Empty(t, errs)
	_, ok := program.Statements[0].(*ast.FnDeclStmt)
	require.True(t, ok)
	let := program.Statements[1].(*ast.LetStmt)
	_, ok = let.Value.(*ast.FuncLitExpr)
	require.True(t, ok)
}

func TestParser_TryCatchFinally(t *testing.T) {
	program, errs := parseSource(t, `try { risky(); } catch (e) { handle(e); } finally { cleanup(); }`)
	require.Empty(t, errs)
	tryStmt, ok := program.Statements[0].(*ast.TryStmt)
	require.True(t, ok)
	require.True(t, tryStmt.HasCatch)
	require.Equal(t, "e", tryStmt.CatchName)
	require.True(t, tryStmt.HasFinally)
}

func TestParser_TryRequiresCatchOrFinally(t *testing.T) {
	_, errs := parseSource(t, `try { risky(); }`)
	require.NotEmpty(t, errs)
}

func TestParser_SwitchStatement(t *testing.T) {
	program, errs := parseSource(t, `switch (x) { case 1, 2: y(); case 3: z(); default: w(); }`)
	require.Empty(t, errs)
	sw, ok := program.Statements[0].(*ast.SwitchStmt)
	require.True(t, ok)
	require.Len(t, sw.Cases, 3)
	require.Len(t, sw.Cases[0].Values, 2)
	require.True(t, sw.Cases[2].IsDefault)
}

func TestParser_ExpressionPrecedence(t *testing.T) {
	program, errs := parseSource(t, `let x = 1 + 2 * 3;`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	bin, ok := let.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "+", bin.Op)
	rightMul, ok := bin.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "*", rightMul.Op)
}

func TestParser_TernaryAndNullCoalesce(t *testing.T) {
	program, errs := parseSource(t, `let x = a ? b : c ?? d;`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	ternary, ok := let.Value.(*ast.TernaryExpr)
	require.True(t, ok)
	_, ok = ternary.Else.(*ast.NullCoalesceExpr)
	require.True(t, ok)
}

func TestParser_RangeExpr(t *testing.T) {
	program, errs := parseSource(t, `let r = 1..=10;`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	rng, ok := let.Value.(*ast.RangeExpr)
	require.True(t, ok)
	require.True(t, rng.Inclusive)
}

func TestParser_CallIndexFieldChain(t *testing.T) {
	program, errs := parseSource(t, `let v = obj.list[0].method(1, 2);`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	call, ok := let.Value.(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	field, ok := call.Callee.(*ast.FieldExpr)
	require.True(t, ok)
	require.Equal(t, "method", field.Field)
}

func TestParser_OptionalFieldAccess(t *testing.T) {
	program, errs := parseSource(t, `let v = obj?.field;`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	field, ok := let.Value.(*ast.FieldExpr)
	require.True(t, ok)
	require.True(t, field.Optional)
}

func TestParser_StringInterpolation(t *testing.T) {
	program, errs := parseSource(t, `let s = "hi ${name}!";`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	interp, ok := let.Value.(*ast.InterpStringExpr)
	require.True(t, ok)
	require.Equal(t, []string{"hi ", "!"}, interp.Parts)
	require.Len(t, interp.Exprs, 1)
}

func TestParser_MatchExpr(t *testing.T) {
	program, errs := parseSource(t, `let r = match (x) { 1 => "one", n if n > 1 => "many", _ => "none" };`)
	require.Empty(t, errs)
	let := program.Statements[0].(*ast.LetStmt)
	m, ok := let.Value.(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Cases, 3)
	_, litOK := m.Cases[0].Pattern.(*ast.LiteralPattern)
	require.True(t, litOK)
	require.NotNil(t, m.Cases[1].Guard)
	_, wildOK := m.Cases[2].Pattern.(*ast.WildcardPattern)
	require.True(t, wildOK)
}

func TestParser_ListAndMapLiterals(t *testing.T) {
	program, errs := parseSource(t, `let l = [1, 2, 3]; let m = {a: 1, b: 2};`)
	require.Empty(t, errs)
	list := program.Statements[0].(*ast.LetStmt).Value.(*ast.ListExpr)
	require.Len(t, list.Elements, 3)
	m := program.Statements[1].(*ast.LetStmt).Value.(*ast.MapExpr)
	require.Len(t, m.Entries, 2)
}

func TestParser_ImportExport(t *testing.T) {
	program, errs := parseSource(t, `import { a, b as c } from "./mod"; export a = 1;`)
	require.Empty(t, errs)
	imp, ok := program.Statements[0].(*ast.ImportStmt)
	require.True(t, ok)
	require.Equal(t, "./mod", imp.Path)
	require.Len(t, imp.Named, 2)
	require.Equal(t, "c", imp.Named[1].Alias)
	exp, ok := program.Statements[1].(*ast.ExportStmt)
	require.True(t, ok)
	require.Equal(t, "a", exp.Name)
}

func TestParser_DeferAndThrow(t *testing.T) {
	program, errs := parseSource(t, `defer cleanup(); throw "boom";`)
	require.Empty(t, errs)
	_, ok := program.Statements[0].(*ast.DeferStmt)
	require.True(t, ok)
	_, ok = program.Statements[1].(*ast.ThrowStmt)
	require.True(t, ok)
}

func TestParser_RecoversAfterSyntaxError(t *testing.T) {
	program, errs := parseSource(t, `let = ; let y = 2;`)
	require.NotEmpty(t, errs)
	// The parser must still produce a best-effort AST for the rest of the
	// program instead of aborting entirely.
	found := false
	for _, stmt := range program.Statements {
		if let, ok := stmt.(*ast.LetStmt); ok {
			if ident, ok := let.Pattern.(*ast.IdentPattern); ok && ident.Name == "y" {
				found = true
			}
		}
	}
	require.True(t, found, "expected parser to recover and still parse `let y = 2;`")
}
