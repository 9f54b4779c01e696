// Command paramctl loads parameter documents and answers lookups, resolution,
// provenance and rule checks from the command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "paramctl:", err)
		os.Exit(exitCode(err))
	}
}
