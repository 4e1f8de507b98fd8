// Package cli implements the cobra-based commands for carlactl.
//
// Each subcommand (up, stop, status, run, drive, video) is defined in its
// own file. This file defines the root command, the global flags, and the
// error-to-exit-code translation.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkoetter/carlactl/internal/config"
	"github.com/mkoetter/carlactl/internal/model"
)

// Global flag variables bound to cobra persistent flags on the root
// command, available to every subcommand.
var (
	// jsonOutput switches command output to JSON for machine consumption.
	jsonOutput bool

	// verbose enables debug/trace output on stderr.
	verbose bool

	// profilePath optionally names an explicit profile file; empty means
	// the standard search locations.
	profilePath string

	// hostOverride overrides the resolved simulator host when non-empty.
	// It is the flag layer of the host resolution chain.
	hostOverride string
)

// Version, Commit, and Date are injected from the main package at build
// time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "carlactl",
		Short: "CARLA simulator and scenario launch manager",
		Long: `carlactl launches and supervises a CARLA simulator (natively or in a
Docker container), runs driving scenarios through the external
scenario-runner framework, and assembles recorded camera frames into
videos.

Configuration is resolved from flags, carlactl.yaml, and the CARLA_*
environment variables, in that order of precedence.`,

		// Errors are formatted by Execute; suppress cobra's own output.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "Path to the launch profile file (default: carlactl.yaml)")
	rootCmd.PersistentFlags().StringVar(&hostOverride, "host", "", "Simulator host (overrides profile and CARLA_HOSTNAME)")

	rootCmd.AddCommand(NewUpCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewDriveCommand())
	rootCmd.AddCommand(NewVideoCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into OS exit codes.
// CLIError values carry their own code; anything else exits 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// loadProfile resolves the launch profile and applies the flag layer on
// top. Shared by all subcommands.
func loadProfile() (*config.Profile, error) {
	p, err := config.Load(profilePath)
	if err != nil {
		return nil, err
	}
	if hostOverride != "" {
		p.Host = hostOverride
	}
	return p, nil
}

// printError outputs an error in the format selected by --json. Errors
// always go to stderr; stdout is reserved for command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{"message": message},
		}
		if underlying != nil {
			errObj["error"].(map[string]interface{})["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
