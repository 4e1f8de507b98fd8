// Package cli — drive.go implements the "carlactl drive" command, the
// manual-control wrapper. It launches the scenario runner's
// manual_control.py against the configured simulator and hands the
// terminal to it until the user quits.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkoetter/carlactl/internal/model"
	"github.com/mkoetter/carlactl/internal/runner"
	"github.com/mkoetter/carlactl/internal/simulator"
)

// NewDriveCommand creates the "drive" cobra command.
func NewDriveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Drive the ego vehicle manually",
		Long: `Launch the scenario runner's manual control script against the
configured simulator. The script runs in the foreground until quit.

Examples:
  carlactl drive
  carlactl drive --host sim-host`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrive(cmd.Context())
		},
	}

	return cmd
}

func runDrive(ctx context.Context) error {
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

	if !simulator.Probe(profile.Host, profile.RPCPort) {
		return model.NewCLIError(model.ExitSimulatorUnreachable,
			fmt.Sprintf("simulator not reachable at %s:%d — start it with \"carlactl up\"",
				profile.Host, profile.RPCPort))
	}

	VerboseLog("Starting manual control against %s:%d", profile.Host, profile.RPCPort)
	return runner.ManualControl(ctx, &runner.Options{
		Host:               profile.Host,
		Python:             profile.Python,
		CarlaRoot:          carlaRoot,
		ScenarioRunnerRoot: runnerRoot,
	})
}
