package main

import (
	"context"
	"fmt"

	"github.com/phanxgames/wisp"
	"github.com/phanxgames/wisp/desktop"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	windowWidth  int
	windowHeight int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the demo in a window",
	Long: `Opens the demo scene in a desktop window. The mouse is a ray: left, middle
and right buttons press surface buttons, space grabs handles, the wheel
pulls a held handle closer or pushes it away and the arrow keys look
around. Home faces forward again.

With --config the file is watched and the demo is rebuilt whenever a valid
version is saved.`,
	Args: cobra.NoArgs,
	RunE: runWindow,
}

func init() {
	runCmd.Flags().IntVar(&windowWidth, "width", 1280, "window width in pixels")
	runCmd.Flags().IntVar(&windowHeight, "height", 720, "window height in pixels")
}

func newScene() *wisp.Scene {
	scene := wisp.NewScene()
	scene.SetLogger(logger.Named("scene"))
	scene.SetQueryLatency(latency)
	return scene
}

func runWindow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	scene := newScene()
	res, err := wisp.NewResources(scene, logger, cfg)
	if err != nil {
		return err
	}
	d, err := newDemo(ctx, scene, res)
	if err != nil {
		return fmt.Errorf("build demo: %w", err)
	}
	defer func() { _ = d.Close() }()

	app := desktop.NewApp(scene, desktop.Options{
		Title:  "wispsim",
		Width:  windowWidth,
		Height: windowHeight,
		Status: func() []string { return d.Status() },
		Logger: logger,
	})
	app.Add(desktop.UpdaterFunc(func(f wisp.FrameInfo) { d.Update(f) }))
	app.AddOverlay(desktop.Overlay{
		Field: d.surface.Field(),
		Lines: func() []wisp.Line { return d.surface.DebugLines() },
	})

	if configPath != "" {
		w, err := wisp.WatchConfig(configPath, logger, func(c wisp.Config) {
			app.Post(func() { d = rebuild(ctx, scene, d, c, app) })
		})
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
	}
	return app.Run()
}

// rebuild replaces d with a demo built from c. On failure the old demo is
// kept.
func rebuild(ctx context.Context, scene *wisp.Scene, d *demo, c wisp.Config, app *desktop.App) *demo {
	res, err := wisp.NewResources(scene, logger, c)
	if err != nil {
		logger.Warn("config rejected", zap.Error(err))
		return d
	}
	next, err := newDemo(ctx, scene, res)
	if err != nil {
		logger.Error("rebuild demo failed", zap.Error(err))
		return d
	}
	if err := d.Close(); err != nil {
		logger.Warn("close demo failed", zap.Error(err))
	}
	app.AddOverlay(desktop.Overlay{
		Field: next.surface.Field(),
		Lines: func() []wisp.Line { return next.surface.DebugLines() },
	})
	logger.Info("demo rebuilt")
	return next
}
