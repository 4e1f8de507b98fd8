// Package video assembles recorded camera frames into a video file by
// invoking ffmpeg. Encoding itself is entirely ffmpeg's business; this
// package only validates the frame directory and builds the invocation.
package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mkoetter/carlactl/internal/model"
)

// framePattern matches the numbered PNG frames the recording sensors
// write.
const framePattern = "*.png"

// Options describes one video assembly.
type Options struct {
	// FramesDir contains the numbered PNG frames.
	FramesDir string

	// OutFile is the target video path. Defaults to <FramesDir>.mp4
	// next to the frame directory.
	OutFile string

	// FrameRate is the input framerate, i.e. the simulation's capture
	// rate.
	FrameRate int
}

// OutputPath returns the effective output file.
func (o *Options) OutputPath() string {
	if o.OutFile != "" {
		return o.OutFile
	}
	return filepath.Clean(o.FramesDir) + ".mp4"
}

// CountFrames returns the number of PNG frames in the directory.
func CountFrames(framesDir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(framesDir, framePattern))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// BuildFFmpegArgs constructs the ffmpeg argument list: glob input at the
// capture framerate, H.264 output with yuv420p so every common player
// accepts the file.
func BuildFFmpegArgs(opts *Options) []string {
	return []string{
		"-y",
		"-framerate", strconv.Itoa(opts.FrameRate),
		"-pattern_type", "glob",
		"-i", filepath.Join(opts.FramesDir, framePattern),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		opts.OutputPath(),
	}
}

// Assemble validates the frame directory and runs ffmpeg. Returns the
// output path and the frame count on success.
func Assemble(ctx context.Context, opts *Options) (string, int, error) {
	if opts.FrameRate < 1 {
		return "", 0, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("framerate must be at least 1, got %d", opts.FrameRate))
	}
	if _, err := os.Stat(opts.FramesDir); err != nil {
		return "", 0, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("frames directory %s not accessible", opts.FramesDir), err)
	}

	count, err := CountFrames(opts.FramesDir)
	if err != nil {
		return "", 0, model.WrapCLIError(model.ExitGeneralError, "failed to scan frames directory", err)
	}
	if count == 0 {
		return "", 0, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("no %s frames found in %s", framePattern, opts.FramesDir))
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", BuildFFmpegArgs(opts)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", 0, model.WrapCLIError(model.ExitFFmpeg,
			fmt.Sprintf("ffmpeg failed: %s", strings.TrimSpace(string(output))), err)
	}

	return opts.OutputPath(), count, nil
}
