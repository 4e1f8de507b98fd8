package docker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkoetter/carlactl/internal/model"
)

// Label keys used to persist simulator launch metadata on the container.
// The labels are the only persistence mechanism for container mode; the
// instance is fully reconstructed from them on stop/status.
//
// All keys share the "carla." prefix so label filters can separate
// carlactl containers from anything else on the host.
const (
	// LabelPrefix is the common prefix for all carlactl labels.
	LabelPrefix = "carla."

	// LabelManagedBy identifies containers launched by carlactl.
	// Key: "carla.managed-by", value: always "carlactl".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelImage stores the CARLA image the container runs.
	LabelImage = LabelPrefix + "image"

	// LabelHost stores the hostname clients should connect to.
	LabelHost = LabelPrefix + "host"

	// LabelRPCPort stores the published RPC port. The streaming and
	// secondary ports derive from it and are not stored separately.
	LabelRPCPort = LabelPrefix + "rpc-port"

	// LabelOpts stores the simulator flag string, space-joined.
	LabelOpts = LabelPrefix + "opts"

	// LabelStartedAt stores the RFC3339 launch timestamp.
	LabelStartedAt = LabelPrefix + "started-at"
)

// ManagedByValue is the constant value of LabelManagedBy.
const ManagedByValue = "carlactl"

// BuildLabels constructs the label map for a simulator container.
// ParseLabels is the inverse.
func BuildLabels(inst *model.SimulatorInstance) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelImage:     inst.Image,
		LabelHost:      inst.Host,
		LabelRPCPort:   strconv.Itoa(inst.RPCPort),
		LabelOpts:      strings.Join(inst.Opts, " "),
		LabelStartedAt: inst.StartedAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs a SimulatorInstance from container labels.
// Status and ContainerID are runtime properties filled in by the caller.
func ParseLabels(labels map[string]string) (*model.SimulatorInstance, error) {
	required := []string{LabelManagedBy, LabelHost, LabelRPCPort, LabelStartedAt}

	var missing []string
	for _, key := range required {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf("label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue)
	}

	rpcPort, err := strconv.Atoi(labels[LabelRPCPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelRPCPort, labels[LabelRPCPort], err)
	}

	startedAt, err := time.Parse(time.RFC3339, labels[LabelStartedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelStartedAt, err)
	}

	inst := &model.SimulatorInstance{
		Mode:      model.ModeContainer,
		Image:     labels[LabelImage],
		Host:      labels[LabelHost],
		RPCPort:   rpcPort,
		StartedAt: startedAt,
	}
	if opts := strings.TrimSpace(labels[LabelOpts]); opts != "" {
		inst.Opts = strings.Fields(opts)
	}
	return inst, nil
}
