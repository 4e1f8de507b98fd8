package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mkoetter/carlactl/internal/config"
	"github.com/mkoetter/carlactl/internal/model"
)

// scenarioRunnerScript is the framework's entry point inside
// SCENARIO_RUNNER_ROOT.
const scenarioRunnerScript = "scenario_runner.py"

// Options describes one scenario-runner invocation.
type Options struct {
	// Spec is the scenario to execute.
	Spec model.ScenarioSpec

	// Host is the simulator host forwarded via --host.
	Host string

	// OutputDir receives the runner's JSON result files (--outputDir)
	// and the execution log. Created if missing.
	OutputDir string

	// Python is the interpreter binary.
	Python string

	// CarlaRoot and ScenarioRunnerRoot locate the external installations.
	CarlaRoot          string
	ScenarioRunnerRoot string
}

// BuildArgs constructs the scenario_runner.py argument list from the
// options. Flag names are the scenario runner's own and are forwarded
// verbatim.
func BuildArgs(opts *Options) []string {
	args := []string{
		filepath.Join(opts.ScenarioRunnerRoot, scenarioRunnerScript),
		"--scenario", opts.Spec.Name,
		"--host", opts.Host,
	}
	if opts.Spec.ConfigFile != "" {
		args = append(args, "--configFile", opts.Spec.ConfigFile)
	}
	if opts.Spec.AdditionalScenario != "" {
		args = append(args, "--additionalScenario", opts.Spec.AdditionalScenario)
	}
	if opts.Spec.ReloadWorld {
		args = append(args, "--reloadWorld")
	}
	if opts.Spec.Debug {
		args = append(args, "--debug")
	}
	if opts.Spec.TimeoutSec > 0 {
		args = append(args, "--timeout", strconv.Itoa(opts.Spec.TimeoutSec))
	}
	if opts.OutputDir != "" {
		// --output prints the result criteria, --file writes them as
		// JSON, --outputDir says where.
		args = append(args, "--output", "--file", "--outputDir", opts.OutputDir)
	}
	return args
}

// BuildEnv returns the child process environment: the parent environment
// with PYTHONPATH extended and the root variables set for scripts that
// read them directly.
func BuildEnv(opts *Options) []string {
	env := os.Environ()
	env = append(env,
		"PYTHONPATH="+BuildPythonPath(opts.CarlaRoot, opts.ScenarioRunnerRoot, os.Getenv("PYTHONPATH")),
		config.EnvCarlaRoot+"="+opts.CarlaRoot,
		config.EnvScenarioRunnerRoot+"="+opts.ScenarioRunnerRoot,
		config.EnvCarlaHostname+"="+opts.Host,
	)
	return env
}

// Run executes the scenario runner in the foreground with inherited
// stdio and returns the recorded run. A non-zero exit from the runner
// yields both the run record and a CLIError with ExitScenarioRunner.
func Run(ctx context.Context, logger *zap.Logger, opts *Options) (*model.ScenarioRun, error) {
	if err := opts.Spec.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitScenarioNotFound, "invalid scenario", err)
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("cannot create output directory %s", opts.OutputDir), err)
		}
	}

	args := BuildArgs(opts)
	logger.Info("starting scenario runner",
		zap.String("scenario", opts.Spec.Name),
		zap.String("python", opts.Python),
		zap.Strings("args", args),
		zap.String("host", opts.Host),
	)

	cmd := exec.CommandContext(ctx, opts.Python, args...)
	cmd.Dir = opts.ScenarioRunnerRoot
	cmd.Env = BuildEnv(opts)
	// The scenario runner's progress output belongs on the console, as
	// it was when the scripts ran it in the foreground.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	started := time.Now()
	runErr := cmd.Run()
	duration := time.Since(started)

	run := &model.ScenarioRun{
		Spec:      opts.Spec,
		Host:      opts.Host,
		OutputDir: opts.OutputDir,
		StartedAt: started.UTC(),
		Duration:  duration,
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			run.ExitCode = exitErr.ExitCode()
		} else {
			run.ExitCode = -1
		}
	}

	run.ResultFiles = collectResults(opts.OutputDir, started)
	logger.Info("scenario runner finished",
		zap.Int("exitCode", run.ExitCode),
		zap.Duration("duration", duration),
		zap.Strings("resultFiles", run.ResultFiles),
	)

	if runErr != nil {
		return run, model.WrapCLIError(model.ExitScenarioRunner,
			fmt.Sprintf("scenario %q failed", opts.Spec.Name), runErr)
	}
	return run, nil
}

// collectResults lists the JSON result files the runner wrote to the
// output directory during this run. Files older than the run start are
// leftovers from earlier runs and are excluded.
func collectResults(outputDir string, since time.Time) []string {
	if outputDir == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(outputDir, "*.json"))
	if err != nil {
		return nil
	}

	var results []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.ModTime().Before(since) {
			continue
		}
		results = append(results, m)
	}
	return results
}

// ManualControl launches the scenario runner's manual_control.py against
// the configured host, in the foreground with inherited stdio. The
// process runs until the user quits it.
func ManualControl(ctx context.Context, opts *Options) error {
	script := filepath.Join(opts.ScenarioRunnerRoot, "manual_control.py")
	if _, err := os.Stat(script); err != nil {
		return model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("manual control script not found at %s", script), err)
	}

	cmd := exec.CommandContext(ctx, opts.Python, script, "--host", opts.Host)
	cmd.Dir = opts.ScenarioRunnerRoot
	cmd.Env = BuildEnv(opts)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(model.ExitScenarioRunner, "manual control exited with error", err)
	}
	return nil
}
