// Command ghostledger is the CLI for the ghostledger event-sourced savings
// ledger.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ghostledger/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
