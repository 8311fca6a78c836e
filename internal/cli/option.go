package cli

// Options is the root command that groups sub-commands. The struct tags are
// interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Config string `short:"f" long:"config" description:"config YAML path"`

	Serve    *ServeCmd    `command:"serve" description:"Start the deliberation HTTP server"`
	Personas *PersonasCmd `command:"personas" description:"List the built-in persona roster"`
	Version  *VersionCmd  `command:"version" description:"Print the build version"`
}

// Init instantiates the sub-command referenced by the first argument so that
// flags.Parse can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "serve":
		o.Serve = &ServeCmd{}
	case "personas":
		o.Personas = &PersonasCmd{}
	case "version":
		o.Version = &VersionCmd{}
	}
}
