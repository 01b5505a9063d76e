// Package main provides the entry point for the nlpfinder CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/nlpfinder/cmd/nlpfinder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
