package runner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BuildPythonPath assembles the PYTHONPATH the CARLA Python tools need:
// the carla egg from the simulator's dist directory, the Python API
// directory itself, and the scenario-runner checkout. An existing
// PYTHONPATH value is appended, never clobbered.
//
// The egg is optional — newer CARLA releases ship a pip-installable wheel
// instead, in which case the dist directory has no egg and the interpreter
// is expected to find the carla package on its own.
func BuildPythonPath(carlaRoot, scenarioRunnerRoot, existing string) string {
	var entries []string

	if egg := findCarlaEgg(carlaRoot); egg != "" {
		entries = append(entries, egg)
	}
	entries = append(entries, filepath.Join(carlaRoot, "PythonAPI", "carla"))
	if scenarioRunnerRoot != "" {
		entries = append(entries, scenarioRunnerRoot)
	}
	if existing != "" {
		entries = append(entries, existing)
	}

	return strings.Join(entries, string(os.PathListSeparator))
}

// findCarlaEgg globs the simulator's dist directory for the client egg,
// the way the launch scripts did with a shell wildcard. Python 3 eggs are
// preferred when both py2 and py3 builds are present.
func findCarlaEgg(carlaRoot string) string {
	pattern := filepath.Join(carlaRoot, "PythonAPI", "carla", "dist", "carla-*.egg")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)

	for _, m := range matches {
		if strings.Contains(filepath.Base(m), "py3") {
			return m
		}
	}
	return matches[0]
}
