package cli

import "fmt"

// version holds the CLI version string. The main package sets it at startup
// through SetVersion, which in turn is populated via -ldflags. Defaults to
// "dev" for local builds.
var version = "dev"

// SetVersion initializes the version string if non-empty.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Version returns the current CLI version string.
func Version() string { return version }

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Execute(_ []string) error {
	fmt.Println(Version())
	return nil
}
