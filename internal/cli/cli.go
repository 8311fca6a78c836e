// Package cli implements the parley command line interface. Each sub-command
// lives in its own file and is wired into the root Options struct, which
// github.com/jessevdk/go-flags interprets.
package cli

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jessevdk/go-flags"

	"github.com/parley-ai/parley/config"
)

var (
	cfgMu   sync.RWMutex
	cfgPath string
)

// setConfigPath stores the -f/--config value for sub-command Execute.
func setConfigPath(p string) {
	cfgMu.Lock()
	cfgPath = p
	cfgMu.Unlock()
}

// loadConfig resolves the effective configuration: the named file when one
// was given, environment overrides always.
func loadConfig() (config.Config, error) {
	cfgMu.RLock()
	path := cfgPath
	cfgMu.RUnlock()

	if path != "" {
		return config.Load(path)
	}
	return config.FromEnv()
}

// Run parses flags and executes the selected command.
func Run(args []string) {
	setConfigPath(extractConfigPath(args))

	opts := &Options{}
	var first string
	if len(args) > 0 {
		first = args[0]
	}
	opts.Init(first)

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			fmt.Println(err)
			return
		}
		log.Fatalf("%v", err)
	}
}

// extractConfigPath scans raw args for -f/--config before full parsing so
// that sub-commands can load configuration inside Execute.
func extractConfigPath(args []string) string {
	for i, a := range args {
		switch a {
		case "-f", "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		default:
			if strings.HasPrefix(a, "--config=") {
				return strings.TrimPrefix(a, "--config=")
			}
		}
	}
	return ""
}
