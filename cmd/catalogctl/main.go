// Package main is the entry point for the catalogctl binary.
package main

import (
	"os"

	cli "sqlcatalog/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
