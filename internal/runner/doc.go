// Package runner invokes the external scenario-runner framework and its
// manual-control script.
//
// It assembles the Python environment (PYTHONPATH with the CARLA egg, the
// CARLA Python API directory, and the scenario-runner checkout), builds the
// scenario_runner.py argument list from a ScenarioSpec, runs the process in
// the foreground with inherited stdio, and collects the JSON result files
// the run produced.
package runner
