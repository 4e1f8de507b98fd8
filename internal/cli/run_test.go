package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoetter/carlactl/internal/model"
)

// clearScenarioEnv unsets the scenario selection variables for a test.
func clearScenarioEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SCENARIO_NAME", "SCENARIO_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// TestResolveScenario_FlagsOnly verifies a scenario assembled purely
// from the command line, with no catalog present.
func TestResolveScenario_FlagsOnly(t *testing.T) {
	clearScenarioEnv(t)
	t.Chdir(t.TempDir())

	spec, err := resolveScenario("VwScenario1", &runFlags{
		configFile:   "vw_scenario_1.xml",
		scenarioFile: "vw_scenario_1.py",
		reloadWorld:  true,
		timeoutSec:   300,
	})

	require.NoError(t, err)
	assert.Equal(t, "VwScenario1", spec.Name)
	assert.Equal(t, "vw_scenario_1.xml", spec.ConfigFile)
	assert.Equal(t, "vw_scenario_1.py", spec.AdditionalScenario)
	assert.True(t, spec.ReloadWorld)
	assert.Equal(t, 300, spec.TimeoutSec)
}

// TestResolveScenario_CatalogEntry verifies catalog resolution and that
// flags override catalog values.
func TestResolveScenario_CatalogEntry(t *testing.T) {
	clearScenarioEnv(t)
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "scenarios.jsonc")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`{
		"scenarios": [
			{"name": "VwScenario1", "configFile": "vw_scenario_1.xml", "reloadWorld": true}
		]
	}`), 0o644))

	spec, err := resolveScenario("VwScenario1", &runFlags{
		catalogPath: catalogPath,
		debug:       true,
	})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vw_scenario_1.xml"), spec.ConfigFile)
	assert.True(t, spec.ReloadWorld, "catalog value should be kept")
	assert.True(t, spec.Debug, "flag should overlay the catalog entry")
	assert.Equal(t, 600, spec.TimeoutSec, "catalog default timeout should apply")
}

// TestResolveScenario_ExplicitCatalogMiss verifies that naming a catalog
// makes an unknown scenario an error rather than a flag-built fallback.
func TestResolveScenario_ExplicitCatalogMiss(t *testing.T) {
	clearScenarioEnv(t)
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "scenarios.jsonc")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`{"scenarios": []}`), 0o644))

	_, err := resolveScenario("Unknown", &runFlags{catalogPath: catalogPath})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitScenarioNotFound, cliErr.Code)
}

// TestResolveScenario_EnvFallback verifies SCENARIO_NAME/SCENARIO_FILE
// select the scenario when no name is given, as the launch scripts did.
func TestResolveScenario_EnvFallback(t *testing.T) {
	clearScenarioEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("SCENARIO_NAME", "VehicleStoppedScenario")
	t.Setenv("SCENARIO_FILE", "vehicle_stopped_scenario.py")

	spec, err := resolveScenario("", &runFlags{})

	require.NoError(t, err)
	assert.Equal(t, "VehicleStoppedScenario", spec.Name)
	assert.Equal(t, "vehicle_stopped_scenario.py", spec.AdditionalScenario)
}

// TestResolveScenario_NothingSelected verifies the error when neither a
// name nor the environment selects a scenario.
func TestResolveScenario_NothingSelected(t *testing.T) {
	clearScenarioEnv(t)
	t.Chdir(t.TempDir())

	_, err := resolveScenario("", &runFlags{})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitScenarioNotFound, cliErr.Code)
}
