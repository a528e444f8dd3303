package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frankischilling/cupidscript/internal/cli/ui"
	"github.com/frankischilling/cupidscript/internal/cliconfig"
	"github.com/frankischilling/cupidscript/internal/compiler/lexer"
	"github.com/frankischilling/cupidscript/internal/compiler/parser"
	"github.com/frankischilling/cupidscript/internal/interpreter"
	"github.com/frankischilling/cupidscript/internal/netio"
	"github.com/frankischilling/cupidscript/pkg/runtime"
)

// NewREPLCommand creates the repl command: a line-oriented read-eval-print
// loop over a single persistent Interpreter, so bindings from one line are
// visible to the next.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive CupidScript session",
		Long:  "repl reads one line at a time, running each as a CupidScript statement against a persistent global scope. Enter :quit to exit.",
		RunE:  runREPL,
	}
}

func runREPL(cmd *cobra.Command, args []string) error {
	noColor := color.NoColor

	cfg, err := cliconfig.Load()
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, noColor))
		return err
	}

	in := interpreter.New("<repl>", zap.NewNop())
	runtime.Register(in.Globals)
	netio.Register(in.Globals, in.Async)
	in.SetInstructionLimit(cfg.InstructionLimit)
	in.Print = func(s string) { fmt.Fprint(cmd.OutOrStdout(), s) }

	fmt.Fprintln(cmd.OutOrStdout(), "cupidscript repl — :quit to exit")

	for {
		var line string
		prompt := &survey.Input{Message: ">"}
		if err := survey.AskOne(prompt, &line); err != nil {
			if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":exit" {
			return nil
		}
		if line == ":globals" {
			printGlobals(cmd, in, noColor)
			continue
		}

		if err := evalREPLLine(cmd, in, line, noColor); err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.RuntimeError(err.Error(), "", nil, noColor))
		}
	}
}

func evalREPLLine(cmd *cobra.Command, in *interpreter.Interpreter, line string, noColor bool) error {
	lx := lexer.New(line)
	tokens, lexErrs := lx.ScanTokens()
	if len(lexErrs) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), ui.SyntaxError(lexErrs[0].Error(), nil, noColor))
		return nil
	}

	p := parser.New(tokens, "<repl>")
	program, parseErrs := p.ParseProgram()
	if len(parseErrs) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), ui.SyntaxError(parseErrs[0].Error(), nil, noColor))
		return nil
	}

	return in.Run(program)
}

// printGlobals renders every name currently bound in the REPL's global
// scope, for the :globals introspection command.
func printGlobals(cmd *cobra.Command, in *interpreter.Interpreter, noColor bool) {
	table := ui.NewTable(cmd.OutOrStdout(), []string{"name"}, &ui.TableOptions{NoColor: noColor})
	for _, name := range in.Globals.Names() {
		table.AddRow(name)
	}
	table.Render()
}
