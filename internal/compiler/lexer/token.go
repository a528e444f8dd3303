// Package lexer provides lexical analysis for CupidScript source code.
// It tokenizes script source into a stream of tokens for the parser.
package lexer

import "fmt"

// TokenType represents the type of a token in the CupidScript language.
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream. ScanTokens appends
	// exactly one, as the last token.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR carries an offending span and position; the lexer never
	// panics on malformed input.
	TOKEN_ERROR

	// Literals
	TOKEN_INT
	TOKEN_FLOAT
	TOKEN_STRING
	TOKEN_RAW_STRING
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_NIL

	// String interpolation sub-mode
	TOKEN_STR_PART
	TOKEN_INTERP_START
	TOKEN_INTERP_END
	TOKEN_STR_END

	TOKEN_IDENT
	TOKEN_WILDCARD // lone `_`

	// Keywords
	TOKEN_LET
	TOKEN_CONST
	TOKEN_FN
	TOKEN_IF
	TOKEN_ELSE
	TOKEN_WHILE
	TOKEN_FOR
	TOKEN_IN
	TOKEN_RETURN
	TOKEN_BREAK
	TOKEN_CONTINUE
	TOKEN_SWITCH
	TOKEN_CASE
	TOKEN_DEFAULT
	TOKEN_MATCH
	TOKEN_DEFER
	TOKEN_IMPORT
	TOKEN_FROM
	TOKEN_AS
	TOKEN_EXPORT
	TOKEN_CLASS
	TOKEN_STRUCT
	TOKEN_ENUM
	TOKEN_ASYNC
	TOKEN_AWAIT
	TOKEN_YIELD
	TOKEN_TRY
	TOKEN_CATCH
	TOKEN_FINALLY
	TOKEN_THROW
	TOKEN_SELF
	TOKEN_SUPER

	// Operators and punctuation
	TOKEN_PLUS              // +
	TOKEN_MINUS             // -
	TOKEN_STAR              // *
	TOKEN_SLASH             // /
	TOKEN_PERCENT           // %
	TOKEN_BANG              // !
	TOKEN_EQ_EQ             // ==
	TOKEN_BANG_EQ           // !=
	TOKEN_LT                // <
	TOKEN_LT_EQ             // <=
	TOKEN_GT                // >
	TOKEN_GT_EQ             // >=
	TOKEN_AND_AND           // &&
	TOKEN_OR_OR             // ||
	TOKEN_QUESTION_QUESTION // ??
	TOKEN_QUESTION_DOT      // ?.
	TOKEN_QUESTION          // ?
	TOKEN_COLON             // :
	TOKEN_DOT               // .
	TOKEN_DOT_DOT           // ..
	TOKEN_DOT_DOT_EQ        // ..=
	TOKEN_DOT_DOT_DOT       // ...
	TOKEN_EQ                // =
	TOKEN_PLUS_EQ           // +=
	TOKEN_MINUS_EQ          // -=
	TOKEN_STAR_EQ           // *=
	TOKEN_SLASH_EQ          // /=
	TOKEN_LPAREN            // (
	TOKEN_RPAREN            // )
	TOKEN_LBRACKET          // [
	TOKEN_RBRACKET          // ]
	TOKEN_LBRACE            // {
	TOKEN_RBRACE            // }
	TOKEN_COMMA             // ,
	TOKEN_SEMICOLON         // ;
	TOKEN_PIPE_GT           // |>
	TOKEN_FAT_ARROW         // =>
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:          "EOF",
	TOKEN_ERROR:        "ERROR",
	TOKEN_INT:          "INT",
	TOKEN_FLOAT:        "FLOAT",
	TOKEN_STRING:       "STRING",
	TOKEN_RAW_STRING:   "RAW_STRING",
	TOKEN_TRUE:         "TRUE",
	TOKEN_FALSE:        "FALSE",
	TOKEN_NIL:          "NIL",
	TOKEN_STR_PART:     "STR_PART",
	TOKEN_INTERP_START: "INTERP_START",
	TOKEN_INTERP_END:   "INTERP_END",
	TOKEN_STR_END:      "STR_END",
	TOKEN_IDENT:        "IDENT",
	TOKEN_WILDCARD:     "WILDCARD",
}

// String renders a TokenType for diagnostics.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Keywords is the reserved word table consulted once an identifier is
// fully scanned.
var Keywords = map[string]TokenType{
	"let":      TOKEN_LET,
	"const":    TOKEN_CONST,
	"fn":       TOKEN_FN,
	"if":       TOKEN_IF,
	"else":     TOKEN_ELSE,
	"while":    TOKEN_WHILE,
	"for":      TOKEN_FOR,
	"in":       TOKEN_IN,
	"return":   TOKEN_RETURN,
	"break":    TOKEN_BREAK,
	"continue": TOKEN_CONTINUE,
	"switch":   TOKEN_SWITCH,
	"case":     TOKEN_CASE,
	"default":  TOKEN_DEFAULT,
	"match":    TOKEN_MATCH,
	"defer":    TOKEN_DEFER,
	"import":   TOKEN_IMPORT,
	"from":     TOKEN_FROM,
	"as":       TOKEN_AS,
	"export":   TOKEN_EXPORT,
	"class":    TOKEN_CLASS,
	"struct":   TOKEN_STRUCT,
	"enum":     TOKEN_ENUM,
	"async":    TOKEN_ASYNC,
	"await":    TOKEN_AWAIT,
	"yield":    TOKEN_YIELD,
	"try":      TOKEN_TRY,
	"catch":    TOKEN_CATCH,
	"finally":  TOKEN_FINALLY,
	"throw":    TOKEN_THROW,
	"self":     TOKEN_SELF,
	"super":    TOKEN_SUPER,
	"true":     TOKEN_TRUE,
	"false":    TOKEN_FALSE,
	"nil":      TOKEN_NIL,
}

// Token is a single lexical unit with its source position.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{} // decoded literal value for INT/FLOAT/STRING/STR_PART
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

// LexError reports a malformed span in the source.
type LexError struct {
	Message string
	Line    int
	Column  int
	Span    string
}

func (e LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}
