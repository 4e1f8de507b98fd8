// Package cli — video.go implements the "carlactl video" command, the
// ffmpeg wrapper that turns a recorded frame sequence into an MP4.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkoetter/carlactl/internal/video"
)

// videoFlags holds the flag values for the video command.
type videoFlags struct {
	out       string // --out: output file path
	frameRate int    // --framerate: input framerate
}

// NewVideoCommand creates the "video" cobra command.
func NewVideoCommand() *cobra.Command {
	flags := &videoFlags{}

	cmd := &cobra.Command{
		Use:   "video <frames-dir>",
		Short: "Assemble recorded frames into a video",
		Long: `Assemble the numbered PNG frames in a directory into an H.264 MP4
using ffmpeg.

The framerate defaults to the profile's frame_rate so the video plays
back at simulation speed.

Examples:
  carlactl video output/frames
  carlactl video --out drive.mp4 --framerate 30 output/frames`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVideo(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.out, "out", "", "Output video file (default: <frames-dir>.mp4)")
	cmd.Flags().IntVar(&flags.frameRate, "framerate", 0, "Input framerate (default: profile frame_rate)")

	return cmd
}

func runVideo(ctx context.Context, framesDir string, flags *videoFlags) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	frameRate := profile.FrameRate
	if flags.frameRate > 0 {
		frameRate = flags.frameRate
	}

	opts := &video.Options{
		FramesDir: framesDir,
		OutFile:   flags.out,
		FrameRate: frameRate,
	}
	VerboseLog("Assembling %s at %d fps...", framesDir, frameRate)

	outPath, frames, err := video.Assemble(ctx, opts)
	if err != nil {
		return err
	}

	printVideoResult(outPath, frames, frameRate)
	return nil
}

// printVideoResult outputs the assembly result in text or JSON format.
func printVideoResult(outPath string, frames, frameRate int) {
	if IsJSONOutput() {
		printJSON(map[string]interface{}{
			"output":    outPath,
			"frames":    frames,
			"framerate": frameRate,
		})
		return
	}
	fmt.Printf("Wrote %s (%d frames at %d fps)\n", outPath, frames, frameRate)
}
