// Package main provides the entry point for the caseload CLI.
package main

import (
	"os"

	"github.com/lawdata/caseload/cmd/caseload/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
