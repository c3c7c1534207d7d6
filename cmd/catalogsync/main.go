// Command catalogsync synchronizes catalog draft files into a commerce
// backend.
package main

import (
	"os"

	"github.com/roach88/catalogsync/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	os.Exit(cli.GetExitCode(err))
}
