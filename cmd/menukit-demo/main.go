package main

import (
	"fmt"
	"os"
	"runtime"
)

func main() {
	if runtime.GOOS != "windows" {
		fmt.Fprintln(os.Stderr, "menukit-demo is only supported on Windows.")
		os.Exit(1)
	}
	runDemo()
}
