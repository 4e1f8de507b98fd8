// Package cli — up.go implements the "carlactl up" command.
//
// up launches the simulator in the configured mode and blocks until its
// RPC port accepts connections (unless --no-wait). Native mode execs the
// CarlaUE4 launcher detached; container mode runs the CARLA image via
// Docker with GPU access and published ports.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkoetter/carlactl/internal/config"
	"github.com/mkoetter/carlactl/internal/docker"
	"github.com/mkoetter/carlactl/internal/model"
	"github.com/mkoetter/carlactl/internal/simulator"
)

// upFlags holds the flag values for the up command.
type upFlags struct {
	mode   string        // --mode: native or container, overrides profile
	noWait bool          // --no-wait: skip the readiness wait
	wait   time.Duration // --wait: readiness timeout
}

// NewUpCommand creates the "up" cobra command.
func NewUpCommand() *cobra.Command {
	flags := &upFlags{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Launch the CARLA simulator",
		Long: `Launch the CARLA simulator and wait until its RPC port accepts
connections.

Native mode starts $CARLA_ROOT/CarlaUE4.sh detached with the flags from
CARLA_OPTS (or the profile's opts). Container mode runs the configured
CARLA image with GPU access and the RPC, streaming, and secondary ports
published on the host.

Examples:
  carlactl up
  carlactl up --mode container
  carlactl up --no-wait
  CARLA_OPTS="-RenderOffScreen" carlactl up`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.mode, "mode", "", "Launch mode: native or container (default: profile setting)")
	cmd.Flags().BoolVar(&flags.noWait, "no-wait", false, "Don't wait for the RPC port to become ready")
	cmd.Flags().DurationVar(&flags.wait, "wait", 90*time.Second, "How long to wait for simulator readiness")

	return cmd
}

// runUp is the orchestration function for the up command.
func runUp(ctx context.Context, flags *upFlags) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	mode := profile.Mode
	if flags.mode != "" {
		mode, err = model.ParseLaunchMode(flags.mode)
		if err != nil {
			return model.WrapCLIError(model.ExitConfigInvalid, "invalid --mode", err)
		}
	}
	VerboseLog("Launch mode: %s", mode)

	var inst *model.SimulatorInstance
	switch mode {
	case model.ModeNative:
		inst, err = launchNative(profile)
	case model.ModeContainer:
		inst, err = launchContainer(ctx, profile)
	}
	if err != nil {
		return err
	}

	if flags.noWait {
		VerboseLog("Skipping readiness wait (--no-wait)")
	} else {
		VerboseLog("Waiting up to %s for %s:%d...", flags.wait, inst.Host, inst.RPCPort)
		if err := simulator.WaitReady(ctx, inst.Host, inst.RPCPort, flags.wait); err != nil {
			return err
		}
		inst.Status = model.StatusRunning
	}

	printUpResult(inst)
	return nil
}

// launchNative starts the simulator binary on the host.
func launchNative(profile *config.Profile) (*model.SimulatorInstance, error) {
	carlaRoot, err := profile.RequireCarlaRoot()
	if err != nil {
		return nil, err
	}

	VerboseLog("Launching %s with opts %v", simulator.BinaryName(), profile.SplitOpts())
	inst, err := simulator.NewNative("").Launch(carlaRoot, profile.SplitOpts(), profile.Host, profile.RPCPort)
	if err != nil {
		return nil, err
	}
	VerboseLog("Simulator started (pid %d)", inst.PID)
	return inst, nil
}

// launchContainer starts the simulator as a Docker container.
func launchContainer(ctx context.Context, profile *config.Profile) (*model.SimulatorInstance, error) {
	cli, err := docker.NewClient()
	if err != nil {
		return nil, err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}
	VerboseLog("Connected to Docker daemon")

	inst := &model.SimulatorInstance{
		Mode:      model.ModeContainer,
		Image:     profile.Image,
		Host:      profile.Host,
		RPCPort:   profile.RPCPort,
		Opts:      profile.SplitOpts(),
		Status:    model.StatusStarting,
		StartedAt: time.Now().UTC(),
	}
	if err := docker.RunSimulator(ctx, cli, inst); err != nil {
		return nil, err
	}
	VerboseLog("Simulator container started (%s)", inst.ContainerID[:12])
	return inst, nil
}

// printUpResult outputs the launch result in text or JSON format.
func printUpResult(inst *model.SimulatorInstance) {
	if IsJSONOutput() {
		printJSON(inst)
		return
	}

	fmt.Printf("Simulator %s (%s mode)\n", inst.Status, inst.Mode)
	fmt.Printf("  RPC:       %s:%d\n", inst.Host, inst.RPCPort)
	fmt.Printf("  Streaming: %s:%d\n", inst.Host, inst.StreamingPort())
	if inst.PID != 0 {
		fmt.Printf("  PID:       %d\n", inst.PID)
	}
	if inst.ContainerID != "" {
		fmt.Printf("  Container: %.12s (%s)\n", inst.ContainerID, inst.Image)
	}
}
