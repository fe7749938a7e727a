// Command pgfts renders PostgreSQL full-text search SQL and index DDL.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/luozhenyu/pgfulltext/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
