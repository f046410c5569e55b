//go:build !windows

package main

// runDemo is only implemented on Windows; main prints an error and exits
// before calling it anywhere else.
func runDemo() {}
