// Package main is the single-binary entrypoint for the attest node.
package main

import "github.com/attest-network/attest/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
