// Package cli — status.go implements the "carlactl status" command.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkoetter/carlactl/internal/docker"
	"github.com/mkoetter/carlactl/internal/model"
	"github.com/mkoetter/carlactl/internal/simulator"
)

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show simulator status",
		Long: `Show the state of all simulators managed by carlactl: tracked
containers, the native pidfile process, and whether the configured RPC
port currently accepts connections.

Examples:
  carlactl status
  carlactl status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}

	return cmd
}

// runStatus gathers instances from both launch modes and probes the RPC
// port of each.
func runStatus(ctx context.Context) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	var instances []*model.SimulatorInstance

	// Container mode: Docker being absent just means there are no
	// container instances to report.
	if cli, err := docker.NewClient(); err == nil {
		defer func() { _ = cli.Close() }()
		if pingErr := cli.Ping(ctx); pingErr == nil {
			found, listErr := docker.ListSimulators(ctx, cli)
			if listErr != nil {
				return listErr
			}
			instances = append(instances, found...)
		}
	}

	// Native mode: the pidfile process, if alive.
	nativeInst, err := simulator.NewNative("").Instance(profile.Host, profile.RPCPort)
	if err != nil {
		return err
	}
	if nativeInst != nil {
		instances = append(instances, nativeInst)
	}

	// Refine status with a live port probe.
	for _, inst := range instances {
		if inst.Status == model.StatusStopped {
			continue
		}
		if simulator.Probe(inst.Host, inst.RPCPort) {
			inst.Status = model.StatusRunning
		} else {
			inst.Status = model.StatusStarting
		}
	}

	printStatusResult(profile.Host, profile.RPCPort, instances)
	return nil
}

// printStatusResult outputs the status in text or JSON format.
func printStatusResult(host string, rpcPort int, instances []*model.SimulatorInstance) {
	if IsJSONOutput() {
		printJSON(map[string]interface{}{
			"host":       host,
			"rpcPort":    rpcPort,
			"simulators": instances,
		})
		return
	}

	if len(instances) == 0 {
		fmt.Printf("No simulator running (checked %s:%d)\n", host, rpcPort)
		return
	}

	for _, inst := range instances {
		fmt.Printf("%-9s  %s  %s:%d", inst.Status, inst.Mode, inst.Host, inst.RPCPort)
		if inst.PID != 0 {
			fmt.Printf("  pid %d", inst.PID)
		}
		if inst.ContainerID != "" {
			fmt.Printf("  container %.12s", inst.ContainerID)
		}
		fmt.Println()
	}
}
