package commands

import (
	"fmt"
	"os"
	"time"

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

var runVerbose bool

// NewRunCommand creates the run command: embed the VM, run a script to
// completion, report its outcome.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a CupidScript file",
		Long: `Run parses and executes a CupidScript file to completion.

Examples:
  cupidscript run script.cupid
  cupidscript run --verbose script.cupid`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}

	cmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Log event-loop and safety diagnostics")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	noColor := color.NoColor

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.RuntimeError(
			fmt.Sprintf("could not read %s: %v", path, err),
			"",
			nil,
			noColor,
		))
		return err
	}

	cfg, err := cliconfig.Load()
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, noColor))
		return err
	}

	var log *zap.Logger
	if runVerbose {
		log, _ = zap.NewDevelopment()
	} else {
		log = zap.NewNop()
	}
	defer log.Sync() //nolint:errcheck

	lx := lexer.New(string(source))
	tokens, lexErrs := lx.ScanTokens()
	if len(lexErrs) > 0 {
		msgs := make([]string, 0, len(lexErrs))
		for _, e := range lexErrs {
			msgs = append(msgs, e.Error())
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.SyntaxError(msgs[0], msgs[1:], noColor))
		return fmt.Errorf("%s", msgs[0])
	}

	p := parser.New(tokens, path)
	program, parseErrs := p.ParseProgram()
	if len(parseErrs) > 0 {
		msgs := make([]string, 0, len(parseErrs))
		for _, e := range parseErrs {
			msgs = append(msgs, e.Error())
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.SyntaxError(msgs[0], msgs[1:], noColor))
		return fmt.Errorf("%s", msgs[0])
	}

	in := interpreter.New(path, log)
	runtime.Register(in.Globals)
	netio.Register(in.Globals, in.Async)
	in.SetInstructionLimit(cfg.InstructionLimit)
	if cfg.Timeout() > 0 {
		in.SetTimeout(cfg.Timeout())
	}
	if cfg.SocketTimeout() > 0 {
		in.Async.SetDefaultTimeout(cfg.SocketTimeout())
	}
	in.Print = func(s string) { fmt.Fprint(cmd.OutOrStdout(), s) }

	start := time.Now()
	runErr := in.Run(program)
	if runVerbose {
		log.Info("script finished", zap.Duration("elapsed", time.Since(start)), zap.Int64("instructions", in.InstructionCount()))
	}
	if runErr != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.RuntimeError(runErr.Error(), "script aborted before completing", nil, noColor))
		return runErr
	}

	return nil
}
