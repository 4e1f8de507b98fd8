package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mkoetter/carlactl/internal/model"
)

// Environment variable names consumed by the profile's environment layer.
// These are the exact names the original launch scripts exported.
const (
	EnvCarlaRoot          = "CARLA_ROOT"
	EnvScenarioRunnerRoot = "SCENARIO_RUNNER_ROOT"
	EnvCarlaHostname      = "CARLA_HOSTNAME"
	EnvCarlaOpts          = "CARLA_OPTS"
	EnvScenarioName       = "SCENARIO_NAME"
	EnvScenarioFile       = "SCENARIO_FILE"
)

// Fallback defaults. The launch scripts defaulted exactly these two
// variables when unset; everything else had to be provided.
const (
	// DefaultHost is used when CARLA_HOSTNAME is unset.
	DefaultHost = "localhost"

	// DefaultOpts is used when CARLA_OPTS is unset.
	DefaultOpts = "-quality-level=Epic"
)

// Built-in defaults for settings the scripts never parameterized.
const (
	defaultRPCPort   = 2000
	defaultPython    = "python3"
	defaultImage     = "carlasim/carla:0.9.13"
	defaultOutputDir = "output"
	defaultFrameRate = 20
)

// profileFileName is the YAML profile file name searched for in the
// working directory and in the user config directory.
const profileFileName = "carlactl.yaml"

// Profile aggregates the launch configuration resolved from flags, the
// YAML profile file, environment variables, and defaults.
type Profile struct {
	// CarlaRoot is the simulator installation root (contains CarlaUE4.sh
	// and PythonAPI/). Required for native launches and Python env setup.
	CarlaRoot string `yaml:"carla_root"`

	// ScenarioRunnerRoot is the scenario-runner checkout (contains
	// scenario_runner.py and manual_control.py).
	ScenarioRunnerRoot string `yaml:"scenario_runner_root"`

	// Host is the simulator hostname scenario runs connect to.
	Host string `yaml:"host"`

	// RPCPort is the simulator RPC port. Streaming and secondary ports
	// derive from it (+1, +2).
	RPCPort int `yaml:"rpc_port"`

	// Opts is the raw simulator flag string (CARLA_OPTS). Split on
	// whitespace into argv at launch time.
	Opts string `yaml:"opts"`

	// Mode selects native or container launch for "up".
	Mode model.LaunchMode `yaml:"mode"`

	// Python is the interpreter used to run the scenario runner and
	// manual control.
	Python string `yaml:"python"`

	// Image is the CARLA Docker image for container mode.
	Image string `yaml:"image"`

	// OutputDir is where scenario results and execution logs are written.
	OutputDir string `yaml:"output_dir"`

	// FrameRate is the default framerate for video assembly.
	FrameRate int `yaml:"frame_rate"`
}

// yamlProfile mirrors Profile for YAML decoding. A separate struct keeps
// zero-value detection simple: only fields present in the file override
// the environment layer.
type yamlProfile struct {
	CarlaRoot          string `yaml:"carla_root"`
	ScenarioRunnerRoot string `yaml:"scenario_runner_root"`
	Host               string `yaml:"host"`
	RPCPort            int    `yaml:"rpc_port"`
	Opts               string `yaml:"opts"`
	Mode               string `yaml:"mode"`
	Python             string `yaml:"python"`
	Image              string `yaml:"image"`
	OutputDir          string `yaml:"output_dir"`
	FrameRate          int    `yaml:"frame_rate"`
}

// DefaultProfile returns a profile populated with the built-in defaults
// only. Environment and file layers are applied by Load.
func DefaultProfile() *Profile {
	return &Profile{
		Host:      DefaultHost,
		RPCPort:   defaultRPCPort,
		Opts:      DefaultOpts,
		Mode:      model.ModeNative,
		Python:    defaultPython,
		Image:     defaultImage,
		OutputDir: defaultOutputDir,
		FrameRate: defaultFrameRate,
	}
}

// Load resolves the profile. path may name an explicit profile file; when
// empty, the standard locations are searched and a missing file is not an
// error (the environment and defaults still apply).
//
// Layer order: defaults, then environment, then YAML file. Command flags
// are applied afterwards by the CLI layer.
func Load(path string) (*Profile, error) {
	p := DefaultProfile()
	p.applyEnv()

	data, src, err := readProfileFile(path)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := p.applyYAML(data); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigInvalid,
				fmt.Sprintf("invalid profile file %s", src), err)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid, "invalid launch profile", err)
	}
	return p, nil
}

// applyEnv overlays the environment variable layer. CARLA_HOSTNAME and
// CARLA_OPTS keep the built-in fallback when unset; the root paths have
// no fallback and stay empty if the environment does not provide them.
func (p *Profile) applyEnv() {
	if v := os.Getenv(EnvCarlaRoot); v != "" {
		p.CarlaRoot = v
	}
	if v := os.Getenv(EnvScenarioRunnerRoot); v != "" {
		p.ScenarioRunnerRoot = v
	}
	if v := os.Getenv(EnvCarlaHostname); v != "" {
		p.Host = v
	}
	if v := os.Getenv(EnvCarlaOpts); v != "" {
		p.Opts = v
	}
}

// applyYAML overlays values present in the profile file. Absent fields
// (zero values after decoding) leave the lower layers untouched.
func (p *Profile) applyYAML(data []byte) error {
	var y yamlProfile
	if err := yaml.Unmarshal(data, &y); err != nil {
		return err
	}

	if y.CarlaRoot != "" {
		p.CarlaRoot = y.CarlaRoot
	}
	if y.ScenarioRunnerRoot != "" {
		p.ScenarioRunnerRoot = y.ScenarioRunnerRoot
	}
	if y.Host != "" {
		p.Host = y.Host
	}
	if y.RPCPort != 0 {
		p.RPCPort = y.RPCPort
	}
	if y.Opts != "" {
		p.Opts = y.Opts
	}
	if y.Mode != "" {
		mode, err := model.ParseLaunchMode(y.Mode)
		if err != nil {
			return err
		}
		p.Mode = mode
	}
	if y.Python != "" {
		p.Python = y.Python
	}
	if y.Image != "" {
		p.Image = y.Image
	}
	if y.OutputDir != "" {
		p.OutputDir = y.OutputDir
	}
	if y.FrameRate != 0 {
		p.FrameRate = y.FrameRate
	}
	return nil
}

// readProfileFile loads the profile file bytes. With an explicit path the
// file must exist; otherwise the standard locations are probed and absence
// is fine.
func readProfileFile(path string) ([]byte, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", model.WrapCLIError(model.ExitConfigInvalid,
				fmt.Sprintf("cannot read profile file %s", path), err)
		}
		return data, path, nil
	}

	for _, candidate := range profileSearchPaths() {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, candidate, nil
		}
	}
	return nil, "", nil
}

// profileSearchPaths lists the default profile locations in priority
// order: working directory first, then the user config directory.
func profileSearchPaths() []string {
	paths := []string{profileFileName}
	if confDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(confDir, "carlactl", profileFileName))
	}
	return paths
}

// Validate checks the resolved profile for values no command could work
// with. Path fields are checked by the commands that need them, since
// e.g. "video" runs fine without a CARLA installation.
func (p *Profile) Validate() error {
	if err := model.ValidatePort(p.RPCPort); err != nil {
		return fmt.Errorf("rpc_port: %w", err)
	}
	if !p.Mode.IsValid() {
		return fmt.Errorf("mode: invalid launch mode %q", p.Mode)
	}
	if p.FrameRate < 1 {
		return fmt.Errorf("frame_rate: must be at least 1, got %d", p.FrameRate)
	}
	if p.Host == "" {
		return fmt.Errorf("host: must not be empty")
	}
	return nil
}

// SplitOpts splits the raw simulator flag string into argv entries.
func (p *Profile) SplitOpts() []string {
	return strings.Fields(p.Opts)
}

// RequireCarlaRoot returns the CARLA root or a config error when it is
// unset or does not exist on disk. Commands that launch the simulator or
// build the Python environment call this.
func (p *Profile) RequireCarlaRoot() (string, error) {
	if p.CarlaRoot == "" {
		return "", model.NewCLIError(model.ExitConfigInvalid,
			"CARLA installation not configured (set CARLA_ROOT or carla_root in carlactl.yaml)")
	}
	if _, err := os.Stat(p.CarlaRoot); err != nil {
		return "", model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("CARLA root %s not accessible", p.CarlaRoot), err)
	}
	return p.CarlaRoot, nil
}

// RequireScenarioRunnerRoot returns the scenario-runner root or a config
// error when it is unset or missing.
func (p *Profile) RequireScenarioRunnerRoot() (string, error) {
	if p.ScenarioRunnerRoot == "" {
		return "", model.NewCLIError(model.ExitConfigInvalid,
			"scenario runner not configured (set SCENARIO_RUNNER_ROOT or scenario_runner_root in carlactl.yaml)")
	}
	if _, err := os.Stat(p.ScenarioRunnerRoot); err != nil {
		return "", model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("scenario runner root %s not accessible", p.ScenarioRunnerRoot), err)
	}
	return p.ScenarioRunnerRoot, nil
}

// EnvScenario returns the scenario selection from the environment
// (SCENARIO_NAME / SCENARIO_FILE), the fallback the launch scripts used
// when no scenario was named on the command line.
func EnvScenario() (name, file string) {
	return os.Getenv(EnvScenarioName), os.Getenv(EnvScenarioFile)
}
