// Command credence scores evidence quality, persona confidence, and
// claim grounding from the command line. Evidence and claims are read
// from JSON files; reports are written to stdout as JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
