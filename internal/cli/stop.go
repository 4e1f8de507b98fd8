// Package cli — stop.go implements the "carlactl stop" command.
//
// stop terminates every simulator carlactl is tracking: labeled Docker
// containers are stopped and removed, and the native pidfile process gets
// SIGTERM (SIGKILL after a grace period). Without a pidfile, a
// process-name match catches simulators started by hand — the same net
// the launch scripts cast with pkill.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkoetter/carlactl/internal/docker"
	"github.com/mkoetter/carlactl/internal/simulator"
)

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the CARLA simulator",
		Long: `Stop all simulators managed by carlactl.

Container-mode simulators are discovered via their carla.* labels,
stopped, and removed. The native-mode simulator is terminated via its
pidfile, falling back to a process-name match when no pidfile exists.

Examples:
  carlactl stop
  carlactl stop --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.Context())
		},
	}

	return cmd
}

// runStop stops containers first, then the native process. Docker being
// unavailable is not an error here: a native-only host has no daemon and
// stop must still work.
func runStop(ctx context.Context) error {
	containersStopped := 0

	cli, err := docker.NewClient()
	if err == nil {
		defer func() { _ = cli.Close() }()

		if pingErr := cli.Ping(ctx); pingErr == nil {
			instances, listErr := docker.ListSimulators(ctx, cli)
			if listErr != nil {
				return listErr
			}
			for _, inst := range instances {
				VerboseLog("Stopping simulator container %.12s...", inst.ContainerID)
				if stopErr := docker.StopSimulator(ctx, cli, inst.ContainerID); stopErr != nil {
					return stopErr
				}
				containersStopped++
			}
		} else {
			VerboseLog("Docker daemon not responding, skipping container cleanup")
		}
	} else {
		VerboseLog("Docker not available, skipping container cleanup")
	}

	nativeStopped, err := simulator.NewNative("").Stop()
	if err != nil {
		return err
	}
	if nativeStopped {
		VerboseLog("Native simulator process stopped")
	}

	printStopResult(containersStopped, nativeStopped)
	return nil
}

// printStopResult outputs the stop summary in text or JSON format.
func printStopResult(containersStopped int, nativeStopped bool) {
	if IsJSONOutput() {
		printJSON(map[string]interface{}{
			"action":            "stopped",
			"containersStopped": containersStopped,
			"nativeStopped":     nativeStopped,
		})
		return
	}

	if containersStopped == 0 && !nativeStopped {
		fmt.Println("No running simulator found")
		return
	}
	if containersStopped > 0 {
		fmt.Printf("Stopped %d simulator container(s)\n", containersStopped)
	}
	if nativeStopped {
		fmt.Println("Stopped native simulator process")
	}
}
