// agentpipe - Guardrailed Agent Pipeline Runner
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/agentpipe

package main

import (
	"os"

	"github.com/ariel-frischer/agentpipe/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
