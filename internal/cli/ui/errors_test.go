package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatError(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "UNDEFINED VARIABLE",
				Problem: "Cannot find variable 'total'.",
			},
			contains: []string{
				"❌",
				"UNDEFINED VARIABLE",
				"Cannot find variable 'total'.",
			},
		},
		{
			name: "error with suggestions",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Context:     "UNDEFINED VARIABLE",
				Problem:     "Cannot find variable 'totl'.",
				Suggestions: []string{"total", "totals"},
			},
			contains: []string{
				"Did you mean: total, totals?",
			},
		},
		{
			name: "error with help commands",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "SYNTAX ERROR",
				Problem: "unexpected token in file",
				HelpCommands: []string{
					"Re-check the file: cupidscript run <file>",
					"Get help: cupidscript --help",
				},
			},
			contains: []string{
				"→ Re-check the file: cupidscript run <file>",
				"→ Get help: cupidscript --help",
			},
		},
		{
			name: "warning message",
			opts: ErrorOptions{
				Level:   ErrorLevelWarning,
				Problem: "Deprecated feature used",
			},
			contains: []string{
				"⚠️",
				"Deprecated feature used",
			},
		},
		{
			name: "info message",
			opts: ErrorOptions{
				Level:   ErrorLevelInfo,
				Problem: "script completed successfully",
			},
			contains: []string{
				"ℹ️",
				"script completed successfully",
			},
		},
		{
			name: "error with consequence",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Context:     "UNCAUGHT EXCEPTION",
				Problem:     "connection reset by peer",
				Consequence: "pending promises were left unresolved",
			},
			contains: []string{
				"connection reset by peer",
				"pending promises were left unresolved",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatError(tt.opts)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("FormatError() output missing expected string:\nExpected to contain: %q\nGot: %q", expected, result)
				}
			}
		})
	}
}

func TestSyntaxError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := SyntaxError("unexpected token '}' at line 12", []string{"check for a missing ';'"}, true)

	expected := []string{
		"SYNTAX ERROR",
		"unexpected token '}' at line 12",
		"Did you mean: check for a missing ';'?",
		"Re-check the file: cupidscript run <file>",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("SyntaxError() missing expected string: %q", exp)
		}
	}
}

func TestRuntimeError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := RuntimeError(
		"uncaught exception: division by zero",
		"script aborted before completing",
		[]string{"wrap the call in try/catch"},
		true,
	)

	expected := []string{
		"UNCAUGHT EXCEPTION",
		"uncaught exception: division by zero",
		"script aborted before completing",
		"Did you mean: wrap the call in try/catch?",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("RuntimeError() missing expected string: %q", exp)
		}
	}
}

func TestWriteError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	opts := ErrorOptions{
		Level:   ErrorLevelError,
		Context: "TEST ERROR",
		Problem: "This is a test",
	}

	WriteError(&buf, opts)

	output := buf.String()
	if !strings.Contains(output, "TEST ERROR") {
		t.Errorf("WriteError() did not write to buffer correctly")
	}
}

func TestFormatSuccess(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := FormatSuccess("Build completed", true)

	if !strings.Contains(result, "✓") {
		t.Errorf("FormatSuccess() missing checkmark")
	}
	if !strings.Contains(result, "Build completed") {
		t.Errorf("FormatSuccess() missing message")
	}
}

func TestWriteSuccess(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	WriteSuccess(&buf, "Test success", true)

	output := buf.String()
	if !strings.Contains(output, "✓") {
		t.Errorf("WriteSuccess() missing checkmark")
	}
	if !strings.Contains(output, "Test success") {
		t.Errorf("WriteSuccess() missing message")
	}
}

func TestWarning(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := Warning("Deprecated feature", []string{"Use new API"}, true)

	expected := []string{
		"⚠️",
		"Deprecated feature",
		"Did you mean: Use new API?",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("Warning() missing expected string: %q", exp)
		}
	}
}

func TestInfo(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := Info("Process starting", true)

	expected := []string{
		"ℹ️",
		"Process starting",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("Info() missing expected string: %q", exp)
		}
	}
}

func TestConfigError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := ConfigError("Invalid YAML syntax", []string{"Check indentation"}, true)

	expected := []string{
		"CONFIGURATION ERROR",
		"Invalid YAML syntax",
		"Did you mean: Check indentation?",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("ConfigError() missing expected string: %q", exp)
		}
	}
}
