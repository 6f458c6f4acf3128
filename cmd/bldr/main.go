package main

import (
	"os"

	"github.com/babylonchain/bldr/cmd/bldr/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
