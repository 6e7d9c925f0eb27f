// cctest - declarative end-to-end tests for CommCare forms

package main

import (
	"os"

	"github.com/cctools/cctest/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
