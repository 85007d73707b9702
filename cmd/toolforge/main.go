package main

import (
	"os"

	"github.com/selma/toolforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
