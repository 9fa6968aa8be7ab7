// Command yoshino inspects and exercises typed record tables.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/linmx0130/yoshino/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands that already reported through the formatter return an
		// ExitError; anything else is a cobra usage error.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
