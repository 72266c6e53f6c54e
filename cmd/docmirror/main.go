// Command docmirror mirrors a directory of text files into a relational
// store and keeps the store in sync as files change.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stderr))
}

// execute runs the command line and returns the process exit code.
// Command errors are printed here since the root command silences them.
func execute(args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
