package simulator

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mkoetter/carlactl/internal/model"
)

const (
	// pidfileName records the PID of the natively launched simulator.
	pidfileName = "carla-simulator.pid"

	// launchLogName receives the simulator's stdout/stderr. The launch
	// scripts discarded this output into the backgrounded shell; keeping
	// it in a file makes "why won't it start" answerable.
	launchLogName = "carla-simulator.log"

	// processPattern is the fallback match for stop when no pidfile
	// exists, mirroring the scripts' `pkill -f` cleanup line.
	processPattern = "CarlaUE4"
)

// killGrace is how long Stop waits after SIGTERM before SIGKILL.
const killGrace = 10 * time.Second

// Native launches and supervises the simulator binary on the host.
// StateDir holds the pidfile and launch log; the zero value uses the
// default location under the user cache directory.
type Native struct {
	StateDir string
}

// NewNative creates a Native supervisor. An empty stateDir selects
// <user-cache>/carlactl.
func NewNative(stateDir string) *Native {
	return &Native{StateDir: stateDir}
}

// BinaryName returns the simulator launcher script name for the current
// platform.
func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "CarlaUE4.exe"
	}
	return "CarlaUE4.sh"
}

// Launch starts the simulator binary under carlaRoot with the given
// flags, detached from this process, and records the pidfile. Returns
// the launched instance; readiness must be awaited separately with
// WaitReady.
//
// Refuses to launch when a pidfile points at a live process, so two
// `up` invocations cannot stack simulators on the same ports.
func (n *Native) Launch(carlaRoot string, opts []string, host string, rpcPort int) (*model.SimulatorInstance, error) {
	if pid, err := n.readPidfile(); err == nil && processAlive(pid) {
		return nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("simulator already running (pid %d) — stop it first", pid))
	}

	binary := filepath.Join(carlaRoot, BinaryName())
	if _, err := os.Stat(binary); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("simulator binary not found at %s", binary), err)
	}

	stateDir, err := n.ensureStateDir()
	if err != nil {
		return nil, err
	}

	args := append([]string{}, opts...)
	args = append(args, fmt.Sprintf("-carla-rpc-port=%d", rpcPort))

	logFile, err := os.OpenFile(filepath.Join(stateDir, launchLogName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to open simulator log file", err)
	}
	defer logFile.Close()

	// No CommandContext here: the simulator must outlive this CLI
	// invocation, exactly like the scripts' `... &`.
	cmd := exec.Command(binary, args...)
	cmd.Dir = carlaRoot
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to launch %s", binary), err)
	}
	pid := cmd.Process.Pid

	if err := n.writePidfile(pid); err != nil {
		return nil, err
	}

	// Release drops our handle without waiting; the simulator keeps
	// running after carlactl exits.
	_ = cmd.Process.Release()

	return &model.SimulatorInstance{
		Mode:      model.ModeNative,
		Host:      host,
		RPCPort:   rpcPort,
		Opts:      opts,
		PID:       pid,
		Status:    model.StatusStarting,
		StartedAt: time.Now().UTC(),
	}, nil
}

// Instance reconstructs the native simulator instance from the pidfile.
// Returns nil (no error) when no simulator is tracked or the tracked
// process is gone; a stale pidfile is cleaned up on the way.
func (n *Native) Instance(host string, rpcPort int) (*model.SimulatorInstance, error) {
	pid, err := n.readPidfile()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to read simulator pidfile", err)
	}

	if !processAlive(pid) {
		_ = os.Remove(n.pidfilePath())
		return nil, nil
	}

	return &model.SimulatorInstance{
		Mode:    model.ModeNative,
		Host:    host,
		RPCPort: rpcPort,
		PID:     pid,
		Status:  model.StatusStarting,
	}, nil
}

// Stop terminates the tracked simulator process: SIGTERM, then SIGKILL
// once the grace period expires. Without a pidfile it falls back to a
// process-name match. Returns false when there was nothing to stop.
func (n *Native) Stop() (bool, error) {
	pid, err := n.readPidfile()
	if err != nil {
		if os.IsNotExist(err) {
			return n.stopByPattern()
		}
		return false, model.WrapCLIError(model.ExitGeneralError, "failed to read simulator pidfile", err)
	}
	defer os.Remove(n.pidfilePath())

	if !processAlive(pid) {
		return false, nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to find simulator process %d", pid), err)
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return false, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to signal simulator process %d", pid), err)
	}

	// Poll for exit; UE4 can take a few seconds to tear down.
	deadline := time.Now().Add(killGrace)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return true, nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	if err := proc.Kill(); err != nil && processAlive(pid) {
		return false, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to kill simulator process %d", pid), err)
	}
	return true, nil
}

// stopByPattern is the pidfile-less fallback: terminate by process name,
// the way the launch scripts' pkill line did. A non-zero pkill exit means
// no process matched, which is not an error here.
func (n *Native) stopByPattern() (bool, error) {
	if runtime.GOOS == "windows" {
		return false, nil
	}
	err := exec.Command("pkill", "-f", processPattern).Run()
	if err != nil {
		return false, nil
	}
	return true, nil
}

// stateDirPath resolves the state directory.
func (n *Native) stateDirPath() (string, error) {
	if n.StateDir != "" {
		return n.StateDir, nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "cannot determine state directory", err)
	}
	return filepath.Join(cacheDir, "carlactl"), nil
}

func (n *Native) ensureStateDir() (string, error) {
	dir, err := n.stateDirPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot create state directory %s", dir), err)
	}
	return dir, nil
}

func (n *Native) pidfilePath() string {
	dir, err := n.stateDirPath()
	if err != nil {
		return pidfileName
	}
	return filepath.Join(dir, pidfileName)
}

func (n *Native) writePidfile(pid int) error {
	path := n.pidfilePath()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to write pidfile %s", path), err)
	}
	return nil
}

func (n *Native) readPidfile() (int, error) {
	data, err := os.ReadFile(n.pidfilePath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pidfile %s: %w", n.pidfilePath(), err)
	}
	return pid, nil
}

// processAlive reports whether a process with the given PID exists.
// Signal 0 performs the existence check without affecting the process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
