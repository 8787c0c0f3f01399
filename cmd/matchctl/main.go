package main

import (
	"os"

	"github.com/pkordes/match-results/backend/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
