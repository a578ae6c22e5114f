// The main package for the dadosgov-harvester executable.
package main

import (
	"github.com/opendatahub-br/dadosgov-harvester/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
