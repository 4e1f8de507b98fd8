// Package cli — run.go implements the "carlactl run" command.
//
// run is the primary operation: it resolves a scenario (catalog entry,
// explicit flags, or the SCENARIO_NAME/SCENARIO_FILE environment
// fallback), verifies the simulator is reachable, invokes the external
// scenario runner in the foreground, and reports the collected result
// files.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkoetter/carlactl/internal/config"
	"github.com/mkoetter/carlactl/internal/logging"
	"github.com/mkoetter/carlactl/internal/model"
	"github.com/mkoetter/carlactl/internal/runner"
	"github.com/mkoetter/carlactl/internal/simulator"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	catalogPath  string // --catalog: explicit scenario catalog file
	configFile   string // --config-file: scenario XML, forwarded verbatim
	scenarioFile string // --scenario-file: additional scenario Python file
	reloadWorld  bool   // --reload-world
	debug        bool   // --debug
	timeoutSec   int    // --timeout: scenario timeout in seconds
	outputDir    string // --output-dir: overrides the profile's output dir
	noCheck      bool   // --no-check: skip the simulator reachability check
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run a driving scenario through the scenario runner",
		Long: `Run a scenario against the simulator via the external scenario-runner
framework.

The scenario is resolved in order: catalog entry matching the given
name, then the name with explicit flags, then the SCENARIO_NAME and
SCENARIO_FILE environment variables when no name is given.

The scenario runner's JSON result files and a structured execution log
are written to the output directory.

Examples:
  carlactl run VwScenario1
  carlactl run VwScenario1 --config-file vw_scenario_1.xml --scenario-file vw_scenario_1.py --reload-world
  carlactl run --output-dir results PruefungCityScenario
  SCENARIO_NAME=VehicleStoppedScenario carlactl run`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runRun(cmd.Context(), name, flags)
		},
	}

	cmd.Flags().StringVar(&flags.catalogPath, "catalog", "", "Scenario catalog file (default: scenarios.jsonc)")
	cmd.Flags().StringVar(&flags.configFile, "config-file", "", "Scenario configuration XML (forwarded as --configFile)")
	cmd.Flags().StringVar(&flags.scenarioFile, "scenario-file", "", "Scenario Python file (forwarded as --additionalScenario)")
	cmd.Flags().BoolVar(&flags.reloadWorld, "reload-world", false, "Reload the CARLA world before the run")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable scenario runner debug output")
	cmd.Flags().IntVar(&flags.timeoutSec, "timeout", 0, "Scenario timeout in seconds (0: catalog or runner default)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Result output directory (default: profile output_dir)")
	cmd.Flags().BoolVar(&flags.noCheck, "no-check", false, "Skip the simulator reachability check")

	return cmd
}

// runRun is the orchestration function for the run command.
func runRun(ctx context.Context, name string, flags *runFlags) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	carlaRoot, err := profile.RequireCarlaRoot()
	if err != nil {
		return err
	}
	runnerRoot, err := profile.RequireScenarioRunnerRoot()
	if err != nil {
		return err
	}

	spec, err := resolveScenario(name, flags)
	if err != nil {
		return err
	}
	VerboseLog("Scenario: %s (config: %s, additional: %s)",
		spec.Name, spec.ConfigFile, spec.AdditionalScenario)

	// A quick reachability check before handing off beats the scenario
	// runner's own multi-second connection timeout stack trace.
	if !flags.noCheck {
		if !simulator.Probe(profile.Host, profile.RPCPort) {
			return model.NewCLIError(model.ExitSimulatorUnreachable,
				fmt.Sprintf("simulator not reachable at %s:%d — start it with \"carlactl up\"",
					profile.Host, profile.RPCPort))
		}
		VerboseLog("Simulator reachable at %s:%d", profile.Host, profile.RPCPort)
	}

	outputDir := profile.OutputDir
	if flags.outputDir != "" {
		outputDir = flags.outputDir
	}

	opts := &runner.Options{
		Spec:               *spec,
		Host:               profile.Host,
		OutputDir:          outputDir,
		Python:             profile.Python,
		CarlaRoot:          carlaRoot,
		ScenarioRunnerRoot: runnerRoot,
	}

	logger, logPath, err := newRunLogger(outputDir)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to create execution log", err)
	}
	defer func() { _ = logger.Sync() }()
	VerboseLog("Execution log: %s", logPath)

	run, runErr := runner.Run(ctx, logger, opts)
	if run != nil {
		printRunResult(run, logPath)
	}
	return runErr
}

// newRunLogger ensures the output directory exists before the log file
// is created in it.
func newRunLogger(outputDir string) (*zap.Logger, string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, "", err
	}
	return logging.NewRunLogger(outputDir)
}

// resolveScenario picks the scenario spec: catalog entry by name first,
// then a spec assembled from the name and flags, then the environment
// fallback the launch scripts honored.
func resolveScenario(name string, flags *runFlags) (*model.ScenarioSpec, error) {
	envName, envFile := config.EnvScenario()
	if name == "" {
		if envName == "" {
			return nil, model.NewCLIError(model.ExitScenarioNotFound,
				"no scenario given (pass a name or set SCENARIO_NAME)")
		}
		name = envName
	}

	catalog, err := config.LoadCatalog(flags.catalogPath)
	if err != nil {
		return nil, err
	}

	spec := &model.ScenarioSpec{Name: name}
	if fromCatalog, lookupErr := catalog.Lookup(name); lookupErr == nil {
		copied := *fromCatalog
		spec = &copied
		VerboseLog("Scenario %q resolved from catalog", name)
	} else if flags.catalogPath != "" {
		// An explicit catalog that doesn't know the scenario is an error;
		// with the implicit catalog the flags/env can still describe it.
		return nil, lookupErr
	}

	// Flags override whatever the catalog said.
	if flags.configFile != "" {
		spec.ConfigFile = flags.configFile
	}
	if flags.scenarioFile != "" {
		spec.AdditionalScenario = flags.scenarioFile
	}
	if spec.AdditionalScenario == "" && envFile != "" {
		spec.AdditionalScenario = envFile
	}
	if flags.reloadWorld {
		spec.ReloadWorld = true
	}
	if flags.debug {
		spec.Debug = true
	}
	if flags.timeoutSec > 0 {
		spec.TimeoutSec = flags.timeoutSec
	}

	if err := spec.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitScenarioNotFound, "invalid scenario", err)
	}
	return spec, nil
}

// printRunResult outputs the run outcome in text or JSON format.
func printRunResult(run *model.ScenarioRun, logPath string) {
	if IsJSONOutput() {
		printJSON(map[string]interface{}{
			"run": run,
			"log": logPath,
		})
		return
	}

	verdict := "PASSED"
	if !run.Passed() {
		verdict = "FAILED"
	}
	fmt.Printf("Scenario %q %s (exit %d, %s)\n",
		run.Spec.Name, verdict, run.ExitCode, run.Duration.Round(time.Millisecond))
	if len(run.ResultFiles) > 0 {
		fmt.Println("  Results:")
		for _, f := range run.ResultFiles {
			fmt.Printf("    %s\n", f)
		}
	}
	fmt.Printf("  Log: %s\n", logPath)
}
