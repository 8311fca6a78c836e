package main

import (
	"os"

	"github.com/parley-ai/parley/internal/cli"
)

// version is injected at build time via -ldflags "-X main.version=v1.2.3".
var version = ""

func main() {
	cli.SetVersion(version)
	cli.Run(os.Args[1:])
}
