// Package main is the entry point for the folio CLI.
package main

import "github.com/foliohq/folio-cli/internal/cli"

func main() {
	cli.Execute()
}
