package interpreter

import (
	"fmt"

	"github.com/frankischilling/cupidscript/internal/cli/ui"
)

// didYouMean renders a " (did you mean ...?)" suffix when a nearby bound
// name exists, the same fuzzy-match heuristic the CLI uses to suggest
// corrections for mistyped subcommands.
func didYouMean(name string, candidates []string) string {
	matches := ui.FindSimilar(name, candidates, nil)
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", matches[0])
}
