// Command stepkit runs browser and CMS behaviour suites.
package main

import (
	"os"

	"github.com/CrisisTextLine/stepkit/cmd/stepkit/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
