package main

import (
	"os"

	"github.com/PratikDhanave/bm-echo-agent/cmd/agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
