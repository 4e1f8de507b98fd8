// Package model defines the domain types for the carlactl CLI.
//
// This package contains pure data structures with no external dependencies:
// the simulator instance and its launch modes, scenario specifications and
// run results, and the exit-code carrying error type (CLIError) used by the
// CLI layer to translate failures into OS exit codes.
//
// Simulator state is never persisted to a state file. Container-mode state
// lives in Docker labels, native-mode state in a pidfile; both are
// reconstructed into these types at runtime.
package model
