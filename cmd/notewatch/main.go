// Command notewatch watches note frontmatter and runs workflows on change.
package main

import (
	"os"

	"github.com/custodia-labs/notewatch/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
