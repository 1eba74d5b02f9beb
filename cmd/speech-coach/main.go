package main

import (
	"os"

	"github.com/PabloGalante/speech-coach/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
