// The main package for the swedish-books executable.
package main

import (
	"github.com/Qluxzz/swedish-books/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
