// Package main is the entry point for the carlactl CLI.
//
// carlactl launches and supervises a CARLA simulator, runs driving
// scenarios through the external scenario-runner framework, and
// assembles recorded frames into videos. All functionality lives in
// internal/cli, which defines the cobra commands.
package main

import (
	"github.com/mkoetter/carlactl/internal/cli"
)

// version, commit, and date are set at build time via ldflags. They
// default to development placeholders otherwise.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
