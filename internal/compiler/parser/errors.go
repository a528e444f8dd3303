// Package parser implements the CupidScript recursive-descent parser,
// transforming a token stream into an AST with source positions on every
// node.
package parser

import (
	"fmt"

	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/compiler/lexer"
)

// ParseError represents an error encountered during parsing. ParseProgram
// returns every error it collected; vm.RunString keeps only the first for
// LastError. Error() renders `line:col: message (near "lexeme")`, with no
// source name.
type ParseError struct {
	Message  string
	Location ast.SourceLocation
	Token    lexer.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s (near %q)", e.Location.Line, e.Location.Column, e.Message, e.Token.Lexeme)
}

func newParseError(message string, token lexer.Token) *ParseError {
	return &ParseError{
		Message:  message,
		Location: ast.SourceLocation{Line: token.Line, Column: token.Column},
		Token:    token,
	}
}
