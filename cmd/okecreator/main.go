package main

import (
	"os"

	"github.com/satindergrewal/okecreator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
