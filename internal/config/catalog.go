package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/mkoetter/carlactl/internal/model"
)

// catalogFileName is the scenario catalog file name. The catalog is JSONC
// (JSON with comments), so entries can carry inline notes about what a
// scenario exercises.
const catalogFileName = "scenarios.jsonc"

// defaultScenarioTimeoutSec is applied to catalog entries without an
// explicit timeout. Matches the scenario classes' own default of 600s.
const defaultScenarioTimeoutSec = 600

// Catalog is the parsed scenario catalog: a named set of scenario
// invocation shapes that the launch scripts used to hard-code one wrapper
// script per scenario for.
type Catalog struct {
	// Dir is the directory the catalog file was loaded from. Relative
	// config-file and additional-scenario paths resolve against it.
	Dir string `json:"-"`

	// Scenarios is the list of catalog entries.
	Scenarios []model.ScenarioSpec `json:"scenarios"`
}

// LoadCatalog reads a scenario catalog file. With an explicit path the
// file must exist; with an empty path the standard locations are probed
// and an empty catalog is returned when none is found.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		found, err := findCatalogFile()
		if err != nil {
			return nil, err
		}
		if found == "" {
			return &Catalog{}, nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("cannot read scenario catalog %s", path), err)
	}

	// Strip JSONC comments and trailing commas before handing the bytes
	// to encoding/json.
	var catalog Catalog
	if err := json.Unmarshal(jsonc.ToJSON(data), &catalog); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("invalid scenario catalog %s", path), err)
	}
	catalog.Dir = filepath.Dir(path)

	for i := range catalog.Scenarios {
		spec := &catalog.Scenarios[i]
		if err := spec.Validate(); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigInvalid,
				fmt.Sprintf("invalid scenario catalog %s", path), err)
		}
		if spec.TimeoutSec == 0 {
			spec.TimeoutSec = defaultScenarioTimeoutSec
		}
		// Resolve file references relative to the catalog so the catalog
		// works regardless of the working directory.
		spec.ConfigFile = catalog.resolve(spec.ConfigFile)
		spec.AdditionalScenario = catalog.resolve(spec.AdditionalScenario)
	}

	return &catalog, nil
}

// findCatalogFile probes the standard catalog locations: working
// directory first, then the user config directory. Returns "" when no
// catalog exists.
func findCatalogFile() (string, error) {
	candidates := []string{catalogFileName}
	if confDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(confDir, "carlactl", catalogFileName))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// resolve makes a catalog-relative path absolute. Empty and already
// absolute paths pass through.
func (c *Catalog) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// Lookup finds a catalog entry by scenario name.
func (c *Catalog) Lookup(name string) (*model.ScenarioSpec, error) {
	for i := range c.Scenarios {
		if c.Scenarios[i].Name == name {
			return &c.Scenarios[i], nil
		}
	}
	return nil, model.NewCLIError(model.ExitScenarioNotFound,
		fmt.Sprintf("scenario %q not found in catalog (%d entries)", name, len(c.Scenarios)))
}

// Names returns the catalog's scenario names in file order, for listings
// and error hints.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Scenarios))
	for i := range c.Scenarios {
		names = append(names, c.Scenarios[i].Name)
	}
	return names
}
