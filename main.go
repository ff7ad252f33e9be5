// The main package for the dealstats executable.
package main

import (
	"github.com/groupwatch/dealstats/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
