// container.go implements the simulator container lifecycle: run the CARLA
// image with GPU access and published ports, rediscover it via labels, and
// stop/remove it.
package docker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/go-connections/nat"

	"github.com/mkoetter/carlactl/internal/model"
)

// containerNamePrefix names simulator containers carlactl creates.
const containerNamePrefix = "carlactl-sim"

// RunSimulator creates and starts a CARLA simulator container from the
// instance description. The container publishes the RPC, streaming, and
// secondary ports on the host and requests all available GPUs, which the
// simulator needs for rendering.
//
// On success the instance's ContainerID is filled in.
func RunSimulator(ctx context.Context, cli *Client, inst *model.SimulatorInstance) error {
	if err := inst.Validate(); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid simulator instance", err)
	}

	portSet, portMap, err := simulatorPorts(inst)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid simulator ports", err)
	}

	// The CARLA image's entrypoint runs CarlaUE4.sh; the command carries
	// the extra flags plus the explicit RPC port so the container's
	// internal layout matches the published one.
	cmd := append([]string{}, inst.Opts...)
	cmd = append(cmd, fmt.Sprintf("-carla-rpc-port=%d", inst.RPCPort))

	cfg := &container.Config{
		Image:        inst.Image,
		Cmd:          cmd,
		Labels:       BuildLabels(inst),
		ExposedPorts: portSet,
	}
	hostCfg := &container.HostConfig{
		PortBindings: portMap,
		Resources: container.Resources{
			// Count -1 requests all GPUs, matching `docker run --gpus all`.
			DeviceRequests: []container.DeviceRequest{
				{Driver: "nvidia", Count: -1, Capabilities: [][]string{{"gpu"}}},
			},
		},
	}

	name := fmt.Sprintf("%s-%d", containerNamePrefix, inst.RPCPort)
	created, err := cli.Inner().ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create simulator container from image %q (is the image pulled?)", inst.Image),
			err)
	}

	if err := cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start simulator container %q", name), err)
	}

	inst.ContainerID = created.ID
	return nil
}

// simulatorPorts builds the exposed-port set and host bindings for the
// RPC port and its two derived ports. Each container port maps to the
// identical host port, since the Python clients address the simulator by
// well-known ports.
func simulatorPorts(inst *model.SimulatorInstance) (nat.PortSet, nat.PortMap, error) {
	ports := []int{inst.RPCPort, inst.StreamingPort(), inst.SecondaryPort()}

	portSet := make(nat.PortSet, len(ports))
	portMap := make(nat.PortMap, len(ports))
	for _, p := range ports {
		natPort, err := nat.NewPort("tcp", strconv.Itoa(p))
		if err != nil {
			return nil, nil, err
		}
		portSet[natPort] = struct{}{}
		portMap[natPort] = []nat.PortBinding{{HostPort: strconv.Itoa(p)}}
	}
	return portSet, portMap, nil
}

// ListSimulators returns all carlactl-managed simulator containers,
// including stopped ones, reconstructed from their labels.
func ListSimulators(ctx context.Context, cli *Client) ([]*model.SimulatorInstance, error) {
	// Server-side label filtering keeps unrelated containers out of the
	// listing entirely.
	filterArgs := filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+ManagedByValue))

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning,
			"failed to list simulator containers", err)
	}

	instances := make([]*model.SimulatorInstance, 0, len(containers))
	for _, c := range containers {
		inst, err := ParseLabels(c.Labels)
		if err != nil {
			// A container carrying our managed-by label but broken
			// metadata is skipped rather than failing the listing.
			continue
		}
		inst.ContainerID = c.ID
		if c.State == "running" {
			inst.Status = model.StatusRunning
		} else {
			inst.Status = model.StatusStopped
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// StopSimulator stops and removes a simulator container. CARLA does not
// checkpoint simulation state, so keeping the stopped container around
// has no value; removal also frees the container name for the next run.
func StopSimulator(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop simulator container %q", shortID(containerID)), err)
	}
	if err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{}); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove simulator container %q", shortID(containerID)), err)
	}
	return nil
}

// shortID truncates a container ID to the familiar 12-character form.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
