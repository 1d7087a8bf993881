package main

import (
	"os"

	"github.com/otmeal-dev/otmeal/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
