// Command scentinel is the Scentinel command-line interface.
package main

import (
	"os"

	"github.com/olfacto/scentinel/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
