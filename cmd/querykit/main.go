// Command querykit runs parameterized SQL against PostgreSQL, MySQL or
// SQLite and writes the result as CSV.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/koustreak/querykit/internal/command"
	"github.com/mitchellh/cli"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stderr,
		ErrorWriter: os.Stderr,
	}

	c := &cli.CLI{
		Name:    "querykit",
		Version: version,
		Args:    args,
		Commands: command.Commands(command.Meta{
			Ui:     ui,
			Ctx:    ctx,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
			Stdin:  os.Stdin,
		}),
		HelpFunc:   cli.BasicHelpFunc("querykit"),
		HelpWriter: os.Stderr,
	}

	code, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err)
		return 1
	}
	return code
}
