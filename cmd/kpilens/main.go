// main is the entry point for the kpilens CLI.
package main

import (
	"fmt"
	"os"

	"github.com/kpilens/kpilens/cmd"
	"github.com/kpilens/kpilens/internal/kpistore"
)

func main() {
	err := cmd.Execute()

	// Close store connections before deciding the exit code, since os.Exit
	// skips deferred calls.
	kpistore.CloseStore()

	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
