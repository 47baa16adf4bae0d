// Command mog is the CLI entry point for the content-addressed version
// control system implemented by this module.
package main

import "github.com/javanhut/mog/internal/clicmd"

func main() {
	clicmd.Execute()
}
