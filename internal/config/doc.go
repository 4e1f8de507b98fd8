// Package config resolves the carlactl launch profile and scenario catalog.
//
// The launch profile aggregates the paths and connection settings every
// command needs. Resolution precedence, highest wins:
//
//	command flags > YAML profile file > environment variables > defaults
//
// The environment layer consumes the variables the original launch scripts
// used (CARLA_ROOT, SCENARIO_RUNNER_ROOT, CARLA_HOSTNAME, CARLA_OPTS,
// SCENARIO_NAME, SCENARIO_FILE), including the scripts' fallback defaults
// for CARLA_HOSTNAME and CARLA_OPTS.
//
// The scenario catalog is a JSONC file (comments allowed) mapping scenario
// names to their invocation details.
package config
