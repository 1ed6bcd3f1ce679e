// Package main provides the entry point for the tsbridge CLI.
package main

import (
	"os"

	"github.com/tsbridge/tsbridge/cmd/tsbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
