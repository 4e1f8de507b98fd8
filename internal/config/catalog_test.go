package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoetter/carlactl/internal/model"
)

// sampleCatalog is a realistic catalog file with JSONC comments and a
// trailing comma, both of which must survive parsing.
const sampleCatalog = `{
	// Scenarios from the driving exam suite.
	"scenarios": [
		{
			"name": "VwScenario1", // busy road on Town04
			"configFile": "vw_scenario_1.xml",
			"additionalScenario": "vw_scenario_1.py",
			"reloadWorld": true,
			"debug": true,
		},
		{
			"name": "PruefungCityScenario",
			"configFile": "/abs/pruefung_city.xml",
			"timeout": 900
		}
	]
}`

// TestLoadCatalog verifies JSONC parsing, the default timeout, and the
// catalog-relative path resolution for file references.
func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	catalog, err := LoadCatalog(path)

	require.NoError(t, err)
	require.Len(t, catalog.Scenarios, 2)
	assert.Equal(t, []string{"VwScenario1", "PruefungCityScenario"}, catalog.Names())

	vw := catalog.Scenarios[0]
	assert.Equal(t, filepath.Join(dir, "vw_scenario_1.xml"), vw.ConfigFile,
		"relative config file should resolve against the catalog dir")
	assert.Equal(t, filepath.Join(dir, "vw_scenario_1.py"), vw.AdditionalScenario)
	assert.True(t, vw.ReloadWorld)
	assert.True(t, vw.Debug)
	assert.Equal(t, 600, vw.TimeoutSec, "missing timeout should default to 600s")

	city := catalog.Scenarios[1]
	assert.Equal(t, "/abs/pruefung_city.xml", city.ConfigFile,
		"absolute paths should pass through untouched")
	assert.Equal(t, 900, city.TimeoutSec)
}

// TestLoadCatalog_Lookup verifies name lookup and the not-found exit code.
func TestLoadCatalog_Lookup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	spec, err := catalog.Lookup("VwScenario1")
	require.NoError(t, err)
	assert.Equal(t, "VwScenario1", spec.Name)

	_, err = catalog.Lookup("NoSuchScenario")
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitScenarioNotFound, cliErr.Code)
}

// TestLoadCatalog_NoFile verifies that an absent catalog yields an empty
// catalog rather than an error when no explicit path was given.
func TestLoadCatalog_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	catalog, err := LoadCatalog("")

	require.NoError(t, err)
	assert.Empty(t, catalog.Scenarios)

	_, err = catalog.Lookup("Anything")
	assert.Error(t, err)
}

// TestLoadCatalog_Invalid covers a nameless entry and malformed JSON.
func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("entry without name", func(t *testing.T) {
		path := filepath.Join(dir, "noname.jsonc")
		require.NoError(t, os.WriteFile(path, []byte(`{"scenarios":[{"configFile":"x.xml"}]}`), 0o644))
		_, err := LoadCatalog(path)
		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitConfigInvalid, cliErr.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.jsonc")
		require.NoError(t, os.WriteFile(path, []byte(`{"scenarios": [}`), 0o644))
		_, err := LoadCatalog(path)
		assert.Error(t, err)
	})
}
