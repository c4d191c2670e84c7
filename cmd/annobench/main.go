// cmd/annobench/main.go
package main

import (
	cmd "github.com/pgxlab/annobench/internal/commands"
)

// main starts the annobench CLI application by delegating to the
// cobra root command defined in the annobench package. It does not
// take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
