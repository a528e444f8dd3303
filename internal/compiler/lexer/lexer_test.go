package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scanSource(source string) ([]Token, []LexError) {
	l := New(source)
	return l.ScanTokens()
}

func typesOf(tokens []Token) []TokenType {
	out := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type == TOKEN_EOF {
			continue
		}
		out = append(out, tok.Type)
	}
	return out
}

func TestLexer_SingleCharTokens(t *testing.T) {
	tokens, errs := scanSource("(){}[],;+-*/%!<>:")
	require.Empty(t, errs)
	require.Equal(t, []TokenType{
		TOKEN_LPAREN, TOKEN_RPAREN, TOKEN_LBRACE, TOKEN_RBRACE,
		TOKEN_LBRACKET, TOKEN_RBRACKET, TOKEN_COMMA, TOKEN_SEMICOLON,
		TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT,
		TOKEN_BANG, TOKEN_LT, TOKEN_GT, TOKEN_COLON,
	}, typesOf(tokens))
}

func TestLexer_CompoundOperators(t *testing.T) {
	tokens, errs := scanSource("== != <= >= && || ?? ?. .. ..= ... += -= *= /= |> =>")
	require.Empty(t, errs)
	require.Equal(t, []TokenType{
		TOKEN_EQ_EQ, TOKEN_BANG_EQ, TOKEN_LT_EQ, TOKEN_GT_EQ,
		TOKEN_AND_AND, TOKEN_OR_OR, TOKEN_QUESTION_QUESTION, TOKEN_QUESTION_DOT,
		TOKEN_DOT_DOT, TOKEN_DOT_DOT_EQ, TOKEN_DOT_DOT_DOT,
		TOKEN_PLUS_EQ, TOKEN_MINUS_EQ, TOKEN_STAR_EQ, TOKEN_SLASH_EQ,
		TOKEN_PIPE_GT, TOKEN_FAT_ARROW,
	}, typesOf(tokens))
}

func TestLexer_Keywords(t *testing.T) {
	tokens, errs := scanSource("let const fn if else while for in return break continue")
	require.Empty(t, errs)
	require.Equal(t, []TokenType{
		TOKEN_LET, TOKEN_CONST, TOKEN_FN, TOKEN_IF, TOKEN_ELSE, TOKEN_WHILE,
		TOKEN_FOR, TOKEN_IN, TOKEN_RETURN, TOKEN_BREAK, TOKEN_CONTINUE,
	}, typesOf(tokens))
}

func TestLexer_WildcardVsIdentifier(t *testing.T) {
	tokens, errs := scanSource("_ _foo")
	require.Empty(t, errs)
	require.Equal(t, []TokenType{TOKEN_WILDCARD, TOKEN_IDENT}, typesOf(tokens))
	require.Equal(t, "_foo", tokens[1].Literal)
}

func TestLexer_IntegerLiterals(t *testing.T) {
	tokens, errs := scanSource("42 1_000_000 0xFF 0x_1a")
	require.Empty(t, errs)
	require.Equal(t, int64(42), tokens[0].Literal)
	require.Equal(t, int64(1000000), tokens[1].Literal)
	require.Equal(t, int64(255), tokens[2].Literal)
	require.Equal(t, int64(26), tokens[3].Literal)
}

func TestLexer_FloatLiterals(t *testing.T) {
	tokens, _ := scanSource("3.14 1e10 2.5e-3 1_000.5")
	require.Equal(t, 3.14, tokens[0].Literal)
	require.Equal(t, 1e10, tokens[1].Literal)
	require.Equal(t, 2.5e-3, tokens[2].Literal)
	require.Equal(t, 1000.5, tokens[3].Literal)
}

func TestLexer_StringEscapes(t *testing.T) {
	tokens, errs := scanSource(`"a\nb\tc\"d\\e"`)
	require.Empty(t, errs)
	require.Equal(t, TOKEN_STRING, tokens[0].Type)
	require.Equal(t, "a\nb\tc\"d\\e", tokens[0].Literal)
}

func TestLexer_RawStringNoEscapes(t *testing.T) {
	tokens, errs := scanSource("`a\\nb`")
	require.Empty(t, errs)
	require.Equal(t, TOKEN_RAW_STRING, tokens[0].Type)
	require.Equal(t, `a\nb`, tokens[0].Literal)
}

func TestLexer_Interpolation(t *testing.T) {
	tokens, errs := scanSource(`"hi ${name}!"`)
	require.Empty(t, errs)
	require.Equal(t, []TokenType{
		TOKEN_STR_PART, TOKEN_INTERP_START, TOKEN_IDENT, TOKEN_INTERP_END, TOKEN_STR_END,
	}, typesOf(tokens))
	require.Equal(t, "hi ", tokens[0].Literal)
	require.Equal(t, "!", tokens[4].Literal)
}

func TestLexer_InterpolationNestedBraces(t *testing.T) {
	// The object literal inside the interpolation must not terminate it early.
	tokens, errs := scanSource(`"v=${ {a: 1}.a }"`)
	require.Empty(t, errs)
	types := typesOf(tokens)
	require.Equal(t, TOKEN_STR_PART, types[0])
	require.Equal(t, TOKEN_INTERP_START, types[1])
	require.Contains(t, types, TOKEN_LBRACE)
	require.Contains(t, types, TOKEN_RBRACE)
	require.Equal(t, TOKEN_INTERP_END, types[len(types)-2])
	require.Equal(t, TOKEN_STR_END, types[len(types)-1])
}

func TestLexer_Comments(t *testing.T) {
	tokens, errs := scanSource("1 // a line comment\n/* block\ncomment */ 2")
	require.Empty(t, errs)
	require.Equal(t, []TokenType{TOKEN_INT, TOKEN_INT}, typesOf(tokens))
}

func TestLexer_UnterminatedBlockComment(t *testing.T) {
	_, errs := scanSource("/* never closes")
	require.NotEmpty(t, errs)
}

func TestLexer_LineColumnTracking(t *testing.T) {
	tokens, _ := scanSource("let\nx = 1")
	// `x` is on line 2, column 1
	var xTok Token
	for _, tok := range tokens {
		if tok.Type == TOKEN_IDENT && tok.Literal == "x" {
			xTok = tok
		}
	}
	require.Equal(t, 2, xTok.Line)
	require.Equal(t, 1, xTok.Column)
}
