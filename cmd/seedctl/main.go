package main

import (
	"fmt"
	"os"

	"seedorders/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout, os.Stdin).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
