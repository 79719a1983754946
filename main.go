// Package main is the entry point for the gamedig query client.
package main

import (
	"fmt"
	"os"

	"github.com/squadnox/gamedig/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
