package main

import (
	"os"

	"github.com/ccapprove/ccapprove/cmd/ccapprove/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
