package scripterror

import (
	"fmt"
	"strings"
)

// Format renders a ScriptError as multi-line terminal output, including its
// stack trace innermost-frame-first.
func Format(e *ScriptError) string {
	var b strings.Builder

	src := e.Source
	if src == "" {
		src = "<script>"
	}
	fmt.Fprintf(&b, "%s in %s\n", categoryLabel(e.Category), src)
	fmt.Fprintf(&b, "  at line %d, column %d: %s\n", e.Location.Line, e.Location.Column, e.Message)

	for _, frame := range e.Stack {
		name := frame.Function
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintf(&b, "    at %s (%s:%d:%d)\n", name, src, frame.Location.Line, frame.Location.Column)
	}

	return b.String()
}

// FormatCompact renders a single-line form, used for log fields.
func FormatCompact(e *ScriptError) string {
	src := e.Source
	if src == "" {
		src = "<script>"
	}
	return fmt.Sprintf("%s:%d:%d: %s [%s]", src, e.Location.Line, e.Location.Column, e.Message, e.Category)
}

func categoryLabel(c Category) string {
	switch c {
	case CategorySyntax:
		return "Syntax error"
	case CategoryRuntime:
		return "Runtime error"
	case CategoryType:
		return "Type error"
	case CategoryNetwork:
		return "Network error"
	case CategoryAsync:
		return "Async error"
	default:
		return "Error"
	}
}
