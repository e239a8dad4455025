//go:build windows

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "termview is not supported on Windows. It requires a Unix pseudo-terminal.")
	os.Exit(1)
}
