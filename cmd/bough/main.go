// Command bough is the CLI entry point.
package main

import (
	"os"

	"bough/internal/bough"
)

func main() {
	os.Exit(bough.Run(os.Args[1:]))
}
