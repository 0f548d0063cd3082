package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"github.com/chazu/brainiac/server"
)

// handleLSPCommand processes the `brainiac lsp` subcommand. The protocol
// runs over stdin/stdout, so logs go to stderr only.
func handleLSPCommand(args []string, stderr io.Writer) int {
	fs := newFlagSet("lsp", stderr)
	verbosity := fs.Int("verbosity", 0, verbosityHelp)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	commonlog.Configure(*verbosity, nil)

	if err := server.NewLSP(version).Run(); err != nil {
		fmt.Fprintf(stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}
