// Package simulator manages the native (non-container) simulator process
// and the RPC readiness probe used by both launch modes.
//
// Native mode starts CarlaUE4.sh detached, records a pidfile under the
// user cache directory, and stops the process with SIGTERM followed by
// SIGKILL after a grace period. When no pidfile exists, stop falls back
// to a process-name match so simulators started by hand are still caught.
package simulator
