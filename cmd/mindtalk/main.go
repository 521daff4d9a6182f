// Package main is the entry point for the mindtalk CLI.
package main

import "github.com/drmind/mindtalk-cli/internal/cli"

func main() {
	cli.Execute()
}
