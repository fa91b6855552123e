// Command docbind inspects and edits documents in a docbind store.
//
// Build with: go build -o bin/docbind ./cmd/docbind
// Usage: docbind [--driver json --path data.json] <get|query|put|add> ...
package main

import (
	"fmt"
	"os"
)

func main() {
	cli := NewCLI(os.Stdin, os.Stdout, os.Stderr)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
