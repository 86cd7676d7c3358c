// Package main provides the entry point for the relayctx CLI.
package main

import (
	"os"

	"github.com/WildfireRanch/relayctx/cmd/relayctx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
