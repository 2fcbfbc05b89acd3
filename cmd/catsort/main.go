package main

import (
	"fmt"
	"os"
)

var version = "dev"

// Entry point for the application
func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err.Error()))
		os.Exit(1)
	}
}
