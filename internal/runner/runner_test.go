package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoetter/carlactl/internal/model"
)

// TestBuildArgs_Full verifies every spec field maps to its scenario-runner
// flag and that the flag names match the framework's CLI exactly.
func TestBuildArgs_Full(t *testing.T) {
	opts := &Options{
		Spec: model.ScenarioSpec{
			Name:               "VwScenario1",
			ConfigFile:         "/cfg/vw_scenario_1.xml",
			AdditionalScenario: "/cfg/vw_scenario_1.py",
			ReloadWorld:        true,
			Debug:              true,
			TimeoutSec:         600,
		},
		Host:               "localhost",
		OutputDir:          "/tmp/out",
		ScenarioRunnerRoot: "/opt/scenario_runner",
	}

	args := BuildArgs(opts)

	assert.Equal(t, []string{
		"/opt/scenario_runner/scenario_runner.py",
		"--scenario", "VwScenario1",
		"--host", "localhost",
		"--configFile", "/cfg/vw_scenario_1.xml",
		"--additionalScenario", "/cfg/vw_scenario_1.py",
		"--reloadWorld",
		"--debug",
		"--timeout", "600",
		"--output", "--file", "--outputDir", "/tmp/out",
	}, args)
}

// TestBuildArgs_Minimal verifies optional flags are omitted when unset.
func TestBuildArgs_Minimal(t *testing.T) {
	opts := &Options{
		Spec:               model.ScenarioSpec{Name: "VehicleStoppedScenario"},
		Host:               "sim-host",
		ScenarioRunnerRoot: "/opt/sr",
	}

	args := BuildArgs(opts)

	assert.Equal(t, []string{
		"/opt/sr/scenario_runner.py",
		"--scenario", "VehicleStoppedScenario",
		"--host", "sim-host",
	}, args)
	assert.NotContains(t, args, "--reloadWorld")
	assert.NotContains(t, args, "--outputDir")
}

// TestBuildEnv verifies PYTHONPATH assembly and the exported root
// variables in the child environment.
func TestBuildEnv(t *testing.T) {
	t.Setenv("PYTHONPATH", "/existing/pp")

	opts := &Options{
		Host:               "localhost",
		CarlaRoot:          "/opt/carla",
		ScenarioRunnerRoot: "/opt/scenario_runner",
	}

	env := BuildEnv(opts)

	pythonPath := lookupEnv(t, env, "PYTHONPATH")
	parts := strings.Split(pythonPath, string(os.PathListSeparator))
	assert.Contains(t, parts, filepath.Join("/opt/carla", "PythonAPI", "carla"))
	assert.Contains(t, parts, "/opt/scenario_runner")
	assert.Equal(t, "/existing/pp", parts[len(parts)-1], "existing PYTHONPATH is appended, not clobbered")

	assert.Equal(t, "/opt/carla", lookupEnv(t, env, "CARLA_ROOT"))
	assert.Equal(t, "/opt/scenario_runner", lookupEnv(t, env, "SCENARIO_RUNNER_ROOT"))
	assert.Equal(t, "localhost", lookupEnv(t, env, "CARLA_HOSTNAME"))
}

// lookupEnv returns the last value of key in an environ slice. Later
// entries win, matching os/exec semantics.
func lookupEnv(t *testing.T, env []string, key string) string {
	t.Helper()
	value := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, key+"=") {
			value = strings.TrimPrefix(kv, key+"=")
		}
	}
	return value
}

// TestBuildPythonPath_EggSelection verifies the dist glob prefers the
// py3 egg and tolerates a missing dist directory.
func TestBuildPythonPath_EggSelection(t *testing.T) {
	carlaRoot := t.TempDir()
	distDir := filepath.Join(carlaRoot, "PythonAPI", "carla", "dist")
	require.NoError(t, os.MkdirAll(distDir, 0o755))

	py2 := filepath.Join(distDir, "carla-0.9.13-py2.7-linux-x86_64.egg")
	py3 := filepath.Join(distDir, "carla-0.9.13-py3.7-linux-x86_64.egg")
	require.NoError(t, os.WriteFile(py2, nil, 0o644))
	require.NoError(t, os.WriteFile(py3, nil, 0o644))

	path := BuildPythonPath(carlaRoot, "/opt/sr", "")
	parts := strings.Split(path, string(os.PathListSeparator))

	assert.Equal(t, py3, parts[0], "py3 egg should be preferred")
	assert.NotContains(t, parts, py2)
}

// TestBuildPythonPath_NoEgg verifies the path still assembles without an
// egg (wheel-based CARLA installs).
func TestBuildPythonPath_NoEgg(t *testing.T) {
	carlaRoot := t.TempDir()

	path := BuildPythonPath(carlaRoot, "/opt/sr", "")
	parts := strings.Split(path, string(os.PathListSeparator))

	assert.Equal(t, []string{
		filepath.Join(carlaRoot, "PythonAPI", "carla"),
		"/opt/sr",
	}, parts)
}

// TestCollectResults verifies only JSON files written after the run start
// are collected.
func TestCollectResults(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "previous_run.json")
	fresh := filepath.Join(dir, "VwScenario1.json")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(old, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	// Backdate the leftover file well before the cutoff.
	past := time.Now().Add(-1 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	results := collectResults(dir, time.Now().Add(-1*time.Minute))

	assert.Equal(t, []string{fresh}, results)
}
