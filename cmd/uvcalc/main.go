// Package main is the entry point for the uvcalc CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/uvcalc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
