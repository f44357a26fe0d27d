package main

import (
	"github.com/alexmaslar/riff-plugin-editorial/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
