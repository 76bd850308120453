package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/phanxgames/wisp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var maxFrames int

var scriptCmd = &cobra.Command{
	Use:   "script [file]",
	Short: "Replay a YAML input script headlessly",
	Long: `Replays a YAML input script against the demo scene at 60 frames per second
without opening a window, then prints a summary.

Example script:
  steps:
    - action: mark
      label: start
    - action: ray_drag
      id: 1
      from: [0, 1.4, -0.5]
      to: [0.45, 1.2, -0.3]
      direction: [0, 0, -1]
      frames: 30
    - action: mark
      label: dropped`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		sum, err := runScript(ctx, data, maxFrames)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), sum)
		return nil
	},
}

func init() {
	scriptCmd.Flags().IntVar(&maxFrames, "max-frames", 3600, "give up after this many frames")
}

// summary is the outcome of a headless script run.
type summary struct {
	Frames   int
	Marks    []wisp.Mark
	Status   []string
	Captures []wisp.CaptureRecord
}

func (s summary) String() string {
	out := fmt.Sprintf("frames: %d\n", s.Frames)
	for _, m := range s.Marks {
		out += fmt.Sprintf("mark %s at frame %d\n", m.Label, m.Frame)
	}
	for _, l := range s.Status {
		out += l + "\n"
	}
	for _, c := range s.Captures {
		out += fmt.Sprintf("captured %s by %s\n", c.Item, c.Name)
	}
	return out
}

// runScript replays data against a fresh demo scene.
func runScript(ctx context.Context, data []byte, limit int) (summary, error) {
	runner, err := wisp.LoadTestScript(data)
	if err != nil {
		return summary{}, err
	}
	runner.OnMark(func(m wisp.Mark) {
		logger.Info("mark", zap.String("label", m.Label), zap.Int("frame", m.Frame))
	})

	scene := newScene()
	scene.SetTestRunner(runner)
	res, err := wisp.NewResources(scene, logger, cfg)
	if err != nil {
		return summary{}, err
	}
	d, err := newDemo(ctx, scene, res)
	if err != nil {
		return summary{}, fmt.Errorf("build demo: %w", err)
	}
	defer func() { _ = d.Close() }()

	var frame wisp.FrameInfo
	n := 0
	for ; n < limit && !runner.Done(); n++ {
		if err := ctx.Err(); err != nil {
			return summary{}, err
		}
		frame.Delta = 1.0 / 60
		frame.Elapsed += time.Second / 60
		scene.Update(frame)
		d.Update(frame)
	}
	if !runner.Done() {
		return summary{}, fmt.Errorf("script did not finish within %d frames", limit)
	}
	d.panel.Wait()
	d.shell.Resolver().Wait()
	return summary{
		Frames:   n,
		Marks:    runner.Marks(),
		Status:   d.Status(),
		Captures: scene.Captures(),
	}, nil
}
