// fileanalysis loads delimited files and application logs into a database
// with an inferred schema.
package main

import (
	"os"

	"github.com/sangupta/fileanalysis/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
