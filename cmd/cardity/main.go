// Command cardity loads a protocol document and drives the runtime from the
// terminal: calling methods, inspecting state and events, and persisting
// snapshots between invocations.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
