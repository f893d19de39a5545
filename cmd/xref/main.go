// # cmd/xref/main.go
package main

import (
	"os"

	"xref/internal/ui/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
