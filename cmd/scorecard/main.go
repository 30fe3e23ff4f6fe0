// Package main is the entry point for the scorecard CLI.
package main

import (
	"os"

	"github.com/freight-scorecard/backend/cmd/scorecard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
