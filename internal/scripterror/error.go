// Package scripterror provides structured error handling for the CupidScript
// runtime: lexer/parser diagnostics and thrown runtime errors, formatted for
// both terminal output and JSON (for host logging via zap).
package scripterror

import (
	"encoding/json"
	"fmt"

	"github.com/frankischilling/cupidscript/internal/compiler/ast"
)

// Category groups an error by the stage that raised it.
type Category string

const (
	CategorySyntax  Category = "syntax"
	CategoryRuntime Category = "runtime"
	CategoryType    Category = "type"
	CategoryNetwork Category = "network"
	CategoryAsync   Category = "async"
)

// Frame is one entry of a runtime error's call stack, innermost first.
type Frame struct {
	Function string             `json:"function"`
	Location ast.SourceLocation `json:"location"`
}

// ScriptError is a structured error produced by the lexer, parser, or
// interpreter. Its Error() string matches the wire format hosts observe
// through vm_last_error: "source:line:col: message".
type ScriptError struct {
	Category Category           `json:"category"`
	Message  string             `json:"message"`
	Location ast.SourceLocation `json:"location"`
	Source   string             `json:"source,omitempty"`
	Stack    []Frame            `json:"stack,omitempty"`
	// Thrown holds the original thrown value for a `throw` propagated to
	// the host (the script can throw any value, not just a string).
	Thrown interface{} `json:"thrown,omitempty"`
}

func (e *ScriptError) Error() string {
	src := e.Source
	if src == "" {
		src = "<script>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", src, e.Location.Line, e.Location.Column, e.Message)
}

// WithStack attaches a call stack, innermost frame first.
func (e *ScriptError) WithStack(frames []Frame) *ScriptError {
	e.Stack = frames
	return e
}

// WithSource sets the originating source/file name.
func (e *ScriptError) WithSource(source string) *ScriptError {
	e.Source = source
	return e
}

// ToJSON renders the error for machine consumption (logged via zap at the
// embedding boundary, or returned across the C API as a string).
func (e *ScriptError) ToJSON() (string, error) {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// New constructs a ScriptError at the given location.
func New(category Category, message string, loc ast.SourceLocation) *ScriptError {
	return &ScriptError{Category: category, Message: message, Location: loc}
}

// Runtimef builds a CategoryRuntime error with a formatted message.
func Runtimef(loc ast.SourceLocation, format string, args ...interface{}) *ScriptError {
	return New(CategoryRuntime, fmt.Sprintf(format, args...), loc)
}
