// Command soilview shows a live, paginated list from a local realtime
// database in the terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
