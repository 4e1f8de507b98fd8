package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoetter/carlactl/internal/model"
)

// TestBuildLabels verifies a SimulatorInstance maps onto the carla.*
// label schema with all keys present.
func TestBuildLabels(t *testing.T) {
	// Arrange: an instance with known values.
	startedAt := time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)
	inst := &model.SimulatorInstance{
		Mode:      model.ModeContainer,
		Image:     "carlasim/carla:0.9.13",
		Host:      "localhost",
		RPCPort:   2000,
		Opts:      []string{"-quality-level=Epic", "-RenderOffScreen"},
		StartedAt: startedAt,
	}

	// Act
	labels := BuildLabels(inst)

	// Assert
	assert.Equal(t, ManagedByValue, labels[LabelManagedBy])
	assert.Equal(t, "carlasim/carla:0.9.13", labels[LabelImage])
	assert.Equal(t, "localhost", labels[LabelHost])
	assert.Equal(t, "2000", labels[LabelRPCPort])
	assert.Equal(t, "-quality-level=Epic -RenderOffScreen", labels[LabelOpts])
	assert.Equal(t, "2026-08-23T14:30:00Z", labels[LabelStartedAt])
	assert.Len(t, labels, 6)
}

// TestParseLabels verifies the round trip back into a SimulatorInstance.
func TestParseLabels(t *testing.T) {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelImage:     "carlasim/carla:0.9.15",
		LabelHost:      "sim-host",
		LabelRPCPort:   "3000",
		LabelOpts:      "-nosound",
		LabelStartedAt: "2026-08-23T14:30:00Z",
	}

	inst, err := ParseLabels(labels)

	require.NoError(t, err)
	assert.Equal(t, model.ModeContainer, inst.Mode)
	assert.Equal(t, "carlasim/carla:0.9.15", inst.Image)
	assert.Equal(t, "sim-host", inst.Host)
	assert.Equal(t, 3000, inst.RPCPort)
	assert.Equal(t, 3001, inst.StreamingPort())
	assert.Equal(t, []string{"-nosound"}, inst.Opts)
	assert.Equal(t, time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC), inst.StartedAt)
}

// TestParseLabels_RoundTrip checks Build → Parse is lossless for the
// fields the labels carry.
func TestParseLabels_RoundTrip(t *testing.T) {
	orig := &model.SimulatorInstance{
		Mode:      model.ModeContainer,
		Image:     "carlasim/carla:0.9.13",
		Host:      "localhost",
		RPCPort:   2000,
		Opts:      []string{"-quality-level=Low"},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	parsed, err := ParseLabels(BuildLabels(orig))

	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

// TestParseLabels_Errors covers missing keys, foreign managed-by values,
// and malformed port/timestamp values.
func TestParseLabels_Errors(t *testing.T) {
	valid := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelHost:      "localhost",
		LabelRPCPort:   "2000",
		LabelStartedAt: "2026-08-23T14:30:00Z",
	}

	t.Run("missing required label", func(t *testing.T) {
		labels := cloneLabels(valid)
		delete(labels, LabelRPCPort)
		_, err := ParseLabels(labels)
		assert.ErrorContains(t, err, LabelRPCPort)
	})

	t.Run("foreign managed-by", func(t *testing.T) {
		labels := cloneLabels(valid)
		labels[LabelManagedBy] = "someone-else"
		_, err := ParseLabels(labels)
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		labels := cloneLabels(valid)
		labels[LabelRPCPort] = "not-a-port"
		_, err := ParseLabels(labels)
		assert.Error(t, err)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		labels := cloneLabels(valid)
		labels[LabelStartedAt] = "yesterday"
		_, err := ParseLabels(labels)
		assert.Error(t, err)
	})

	t.Run("empty opts stay nil", func(t *testing.T) {
		inst, err := ParseLabels(cloneLabels(valid))
		require.NoError(t, err)
		assert.Nil(t, inst.Opts)
	})
}

func cloneLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
