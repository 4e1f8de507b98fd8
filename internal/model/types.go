package model

import (
	"fmt"
	"strings"
	"time"
)

// LaunchMode selects how the simulator process is started.
type LaunchMode string

const (
	// ModeNative launches the simulator binary (CarlaUE4.sh) directly
	// on the host via os/exec.
	ModeNative LaunchMode = "native"

	// ModeContainer launches the simulator as a Docker container from
	// the configured CARLA image, with GPU access and published ports.
	ModeContainer LaunchMode = "container"
)

// String returns the string representation of LaunchMode.
func (m LaunchMode) String() string {
	return string(m)
}

// IsValid checks whether the LaunchMode is one of the predefined modes.
func (m LaunchMode) IsValid() bool {
	switch m {
	case ModeNative, ModeContainer:
		return true
	default:
		return false
	}
}

// ParseLaunchMode converts a string to a LaunchMode.
// Returns an error if the string does not match any valid mode.
func ParseLaunchMode(s string) (LaunchMode, error) {
	mode := LaunchMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid launch mode: %q (valid: native, container)", s)
	}
	return mode, nil
}

// SimulatorStatus represents the observed state of the simulator.
//
// The state is derived at query time from process/container liveness and
// RPC port reachability:
//
//	Stopped → Starting (process up, port closed) → Running (port open)
type SimulatorStatus string

const (
	// StatusRunning indicates the simulator process is alive and its RPC
	// port accepts connections.
	StatusRunning SimulatorStatus = "running"

	// StatusStarting indicates the simulator process is alive but the RPC
	// port is not yet reachable. CARLA takes several seconds to bring up
	// its RPC server after process start.
	StatusStarting SimulatorStatus = "starting"

	// StatusStopped indicates no managed simulator process or container
	// was found.
	StatusStopped SimulatorStatus = "stopped"
)

// String returns the string representation of SimulatorStatus.
func (s SimulatorStatus) String() string {
	return string(s)
}

// SimulatorInstance describes a simulator launched (or discoverable) by
// carlactl. For container mode the fields are reconstructed from Docker
// labels; for native mode from the pidfile and the launch profile.
type SimulatorInstance struct {
	// Mode is how the simulator was launched (native or container).
	Mode LaunchMode `json:"mode"`

	// Image is the Docker image the simulator runs from.
	// Empty for native mode.
	Image string `json:"image,omitempty"`

	// Host is the hostname the simulator's RPC server is reachable at.
	Host string `json:"host"`

	// RPCPort is the CARLA RPC port (default 2000). The streaming port is
	// always RPCPort+1 and the secondary RPC port RPCPort+2, following the
	// simulator's own port layout.
	RPCPort int `json:"rpcPort"`

	// Opts are the extra simulator flags (split from CARLA_OPTS or the
	// profile's opts string), e.g. "-quality-level=Epic" or "-RenderOffScreen".
	Opts []string `json:"opts,omitempty"`

	// PID is the host process ID for native mode. Zero for container mode.
	PID int `json:"pid,omitempty"`

	// ContainerID is the Docker container ID for container mode.
	ContainerID string `json:"containerId,omitempty"`

	// Status is the observed state of this instance.
	Status SimulatorStatus `json:"status"`

	// StartedAt is when the simulator was launched.
	StartedAt time.Time `json:"startedAt"`
}

// StreamingPort returns the simulator's sensor streaming port, which CARLA
// places directly after the RPC port.
func (si *SimulatorInstance) StreamingPort() int {
	return si.RPCPort + 1
}

// SecondaryPort returns the simulator's secondary RPC port (RPCPort+2).
func (si *SimulatorInstance) SecondaryPort() int {
	return si.RPCPort + 2
}

// Validate checks the instance's field values.
func (si *SimulatorInstance) Validate() error {
	if !si.Mode.IsValid() {
		return fmt.Errorf("simulator instance: invalid mode %q", si.Mode)
	}
	if si.Host == "" {
		return fmt.Errorf("simulator instance: host must not be empty")
	}
	if err := ValidatePort(si.RPCPort); err != nil {
		return fmt.Errorf("simulator instance: %w", err)
	}
	// The streaming and secondary ports derive from the RPC port, so the
	// RPC port must leave room for them below 65535.
	if si.RPCPort > 65533 {
		return fmt.Errorf("simulator instance: rpc port %d leaves no room for streaming/secondary ports", si.RPCPort)
	}
	return nil
}

// ValidatePort checks that a port number is within the valid TCP range.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return nil
}

// ScenarioSpec describes one runnable scenario: the name the scenario-runner
// framework resolves, plus the invocation details the launch scripts used to
// hard-code per scenario.
type ScenarioSpec struct {
	// Name is the scenario class name passed to --scenario
	// (e.g. "VwScenario1").
	Name string `json:"name" yaml:"name"`

	// ConfigFile is the scenario configuration XML passed to --configFile.
	// Optional; the scenario runner falls back to its bundled catalog.
	ConfigFile string `json:"configFile,omitempty" yaml:"config_file,omitempty"`

	// AdditionalScenario is the Python file defining the scenario class,
	// passed to --additionalScenario for scenarios that live outside the
	// scenario runner's own tree.
	AdditionalScenario string `json:"additionalScenario,omitempty" yaml:"additional_scenario,omitempty"`

	// ReloadWorld makes the scenario runner reload the CARLA world before
	// the run (--reloadWorld).
	ReloadWorld bool `json:"reloadWorld,omitempty" yaml:"reload_world,omitempty"`

	// Debug enables the scenario runner's debug output (--debug).
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`

	// TimeoutSec is the scenario timeout in seconds, forwarded via
	// --timeout. Zero means the catalog default.
	TimeoutSec int `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Validate checks the scenario spec. A spec must name a scenario; everything
// else is optional because the scenario runner has defaults for it.
func (s *ScenarioSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario spec: name must not be empty")
	}
	if s.TimeoutSec < 0 {
		return fmt.Errorf("scenario spec %q: timeout must not be negative", s.Name)
	}
	return nil
}

// ScenarioRun records the outcome of one scenario-runner invocation.
type ScenarioRun struct {
	// Spec is the scenario that was executed.
	Spec ScenarioSpec `json:"spec"`

	// Host is the simulator host the run targeted.
	Host string `json:"host"`

	// OutputDir is where the scenario runner wrote its result files.
	OutputDir string `json:"outputDir"`

	// StartedAt is when the scenario runner process was started.
	StartedAt time.Time `json:"startedAt"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`

	// ExitCode is the scenario runner's process exit code.
	ExitCode int `json:"exitCode"`

	// ResultFiles lists the JSON result files collected from OutputDir
	// after the run.
	ResultFiles []string `json:"resultFiles,omitempty"`
}

// Passed reports whether the scenario runner exited successfully.
func (r *ScenarioRun) Passed() bool {
	return r.ExitCode == 0
}

// ExitCode defines the CLI exit codes. These allow scripts and CI systems
// to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigInvalid indicates the launch profile or scenario catalog
	// could not be loaded or failed validation.
	ExitConfigInvalid ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitSimulatorUnreachable indicates the simulator RPC port did not
	// accept connections within the allowed time.
	ExitSimulatorUnreachable ExitCode = 4

	// ExitScenarioRunner indicates the scenario runner process failed.
	ExitScenarioRunner ExitCode = 5

	// ExitScenarioNotFound indicates the requested scenario is not in the
	// catalog and no fallback selection was available.
	ExitScenarioNotFound ExitCode = 6

	// ExitFFmpeg indicates video assembly via ffmpeg failed.
	ExitFFmpeg ExitCode = 7
)

// CLIError is a custom error type that carries an exit code, allowing the
// CLI layer to translate domain errors into process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
