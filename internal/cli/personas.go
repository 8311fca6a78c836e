package cli

import (
	"fmt"

	"github.com/parley-ai/parley/persona"
)

// PersonasCmd lists the built-in persona roster.
type PersonasCmd struct{}

func (c *PersonasCmd) Execute(_ []string) error {
	for _, name := range persona.Default().Names() {
		fmt.Println(name)
	}
	return nil
}
